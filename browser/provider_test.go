package browser

import (
	"testing"

	"github.com/shoplens/shoplens/models"
)

func TestTouchEmulationProfile(t *testing.T) {
	req := touchEmulation()
	if !req.Enabled {
		t.Error("touch emulation disabled for mobile profile")
	}
	if req.MaxTouchPoints == nil || *req.MaxTouchPoints != 5 {
		t.Errorf("MaxTouchPoints = %v, want 5", req.MaxTouchPoints)
	}
}

func TestProfilesCoverBothViewports(t *testing.T) {
	desktop, mobile := profiles[models.ViewportDesktop], profiles[models.ViewportMobile]
	if desktop.width != 1366 || desktop.height != 900 || desktop.mobile {
		t.Errorf("desktop profile = %+v", desktop)
	}
	if mobile.width != 390 || mobile.height != 844 || !mobile.mobile {
		t.Errorf("mobile profile = %+v", mobile)
	}
}
