package popup

// VendorScript is a consent-platform pre-acceptance snippet installed
// via EvalOnNewDocument, so it runs before the vendor's own script on
// every navigation. Each snippet plants the cookie or storage key the
// vendor checks before rendering its banner; a vendor that is not
// present on the page simply never reads the key.
type VendorScript struct {
	Name string
	JS   string
}

var vendorScripts = []VendorScript{
	{
		Name: "onetrust",
		JS: `() => {
			const stamp = new Date().toISOString();
			document.cookie = "OptanonAlertBoxClosed=" + stamp + "; path=/; max-age=31536000";
			document.cookie = "OptanonConsent=isGpcEnabled=0&browserGpcFlag=0&isIABGlobal=false&landingPath=NotLandingPage&groups=C0001:1,C0002:1,C0003:1,C0004:1; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "cookiebot",
		JS: `() => {
			document.cookie = "CookieConsent={stamp:'-1',necessary:true,preferences:true,statistics:true,marketing:true,method:'explicit',ver:1}; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "trustarc",
		JS: `() => {
			document.cookie = "notice_behavior=expressed,eu; path=/; max-age=31536000";
			document.cookie = "notice_gdpr_prefs=0,1,2:; path=/; max-age=31536000";
			document.cookie = "cmapi_cookie_privacy=permit 1,2,3; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "usercentrics",
		JS: `() => {
			try {
				localStorage.setItem("uc_user_interaction", "true");
				localStorage.setItem("uc_ui_version", "3.0.0");
			} catch(e) {}
		}`,
	},
	{
		Name: "didomi",
		JS: `() => {
			document.cookie = "didomi_token=accepted; path=/; max-age=31536000";
			try { localStorage.setItem("didomi_token", "accepted"); } catch(e) {}
		}`,
	},
	{
		Name: "quantcast",
		JS: `() => {
			document.cookie = "addtl_consent=1~; path=/; max-age=31536000";
			try { localStorage.setItem("noniabvendorconsent", "accepted"); } catch(e) {}
		}`,
	},
	{
		Name: "klaro",
		JS: `() => {
			document.cookie = "klaro={}; path=/; max-age=31536000";
			try { localStorage.setItem("klaro", "{}"); } catch(e) {}
		}`,
	},
	{
		Name: "osano",
		JS: `() => {
			document.cookie = "osano_consentmanager_uuid=pre; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "cookieyes",
		JS: `() => {
			document.cookie = "cookieyes-consent=consentid:pre,consent:yes,action:yes,necessary:yes,functional:yes,analytics:yes,advertisement:yes; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "complianz",
		JS: `() => {
			document.cookie = "cmplz_banner-status=dismissed; path=/; max-age=31536000";
			document.cookie = "cmplz_consented_services=; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "borlabs",
		JS: `() => {
			document.cookie = "borlabs-cookie={\"consents\":{\"essential\":[\"borlabs-cookie\"]}}; path=/; max-age=31536000";
		}`,
	},
	{
		Name: "shopify",
		JS: `() => {
			document.cookie = "_tracking_consent={\"con\":{\"CMP\":{\"a\":\"1\",\"m\":\"1\",\"p\":\"1\",\"s\":\"1\"}},\"v\":\"2.1\",\"region\":\"\",\"reg\":\"\"}; path=/; max-age=31536000";
		}`,
	},
}

// vendorContainerSelectors are the root elements the known consent
// platforms and popup vendors inject. Removing the root removes the
// banner, its backdrop, and its scroll lock in one shot.
var vendorContainerSelectors = []string{
	"#onetrust-consent-sdk",
	"#CybotCookiebotDialog",
	"#CybotCookiebotDialogBodyUnderlay",
	".truste_overlay",
	".truste_box_overlay",
	"#truste-consent-track",
	"#usercentrics-root",
	"#usercentrics-cmp-ui",
	"#didomi-host",
	".qc-cmp2-container",
	".klaro",
	".osano-cm-window",
	".cky-consent-container",
	".cky-overlay",
	".cmplz-cookiebanner",
	"#cmplz-cookiebanner-container",
	"#BorlabsCookieBox",
	"#BorlabsCookieWidget",
	"#shopify-pc__banner",
	"#attentive_overlay",
	"#attentive_creative",
	".needsclick[role='dialog']",
	"[id^='om-'][class*='Modal']",
	".privy-popup-container",
	"#PrivyModal",
	".mailmunch-popover",
	"#wisepops-root",
	".ju_Con",
	"#sumome-smartbar",
	".justuno-overlay",
}

// PreConsentScripts returns the JS snippets to install before any page
// script runs. EvalOnNewDocument submits plain script source rather than
// a function expression, so each snippet is wrapped as an immediately
// invoked call; installing the bare arrow function would define it and
// never run it.
func PreConsentScripts() []string {
	scripts := make([]string, len(vendorScripts))
	for i, v := range vendorScripts {
		scripts[i] = "(" + v.JS + ")();"
	}
	return scripts
}

// VendorNames lists the consent platforms the pre-acceptance scripts
// cover, for logging.
func VendorNames() []string {
	names := make([]string, len(vendorScripts))
	for i, v := range vendorScripts {
		names[i] = v.Name
	}
	return names
}
