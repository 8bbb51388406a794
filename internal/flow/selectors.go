// Package flow 实现 Printful 账号生命周期的页面流程：注册、问卷、
// 完成判定，以及登录/充值/账单三个会话流程。所有 DOM 选择器集中在
// 这张带版本号的表里，站点改版只改这一处。
package flow

// StatusFunc 在每个可观察节点被调用。message 只给人看，
// 调用方不得解析其内容做逻辑分支。
type StatusFunc func(accountID, message string)

type Selectors struct {
	Version string

	// 注册页
	RegisterPath   string
	RegisterNav    []string
	EmailReveal    string
	FullName       string
	Email          string
	Password       string
	Terms          string
	Submit         string

	// 问卷
	SurveyRoot     string
	SurveyAnswer   string
	SurveyFreeText string
	SurveyNext     string

	// 完成判定
	EmailConfirmCloser    string
	SuccessMarkers        []string
	DashboardPath         string
	DashboardFallbackPath string

	// 登录
	LoginPath     string
	LoginEmail    string
	LoginPassword string
	LoginSubmit   string

	// 充值
	WalletPath    string
	AmountField   string
	PaymentMethod string

	// 账单
	BillingPath    string
	BillingName    string
	BillingAddress string
	BillingCity    string
	BillingRegion  string
	BillingZip     string
	BillingSave    string
}

// selectorsV1 对应 2025-08 的站点版本。
var selectorsV1 = Selectors{
	Version: "v1-2025-08",

	RegisterPath: "/auth/register",
	RegisterNav: []string{
		"a[href='/auth/register']",
		"a[data-test='signup-link']",
		"a.pf-header__signup",
	},
	EmailReveal: "a.register__email",
	FullName:    "input[name='fullName']",
	Email:       "input[name='email']",
	Password:    "input[name='password']",
	Terms:       "input[name='hasAcceptedTerms']",
	Submit:      "input[type='submit'][value='Sign up']",

	SurveyRoot:     "div.lead-scoring-survey",
	SurveyAnswer:   "div.lead-scoring-survey button.answer-button",
	SurveyFreeText: "div.lead-scoring-survey input[type='text'], div.lead-scoring-survey textarea",
	SurveyNext:     "div.lead-scoring-survey button[type='submit']",

	EmailConfirmCloser: "button[data-test^='email-confirm-popup-closer-btn']",
	SuccessMarkers: []string{
		"a[href='/orders']",
		"a[href='/stores']",
		"a[href='/products']",
	},
	DashboardPath:         "/dashboard/default",
	DashboardFallbackPath: "/dashboard",

	LoginPath:     "/auth/login",
	LoginEmail:    "input[name='email']",
	LoginPassword: "input[name='password']",
	LoginSubmit:   "button[type='submit']",

	WalletPath:    "/dashboard/billing/wallet",
	AmountField:   "input[name='amount']",
	PaymentMethod: "button[data-test='payment-method-card']",

	BillingPath:    "/dashboard/settings/billing",
	BillingName:    "input[name='billingName']",
	BillingAddress: "input[name='address']",
	BillingCity:    "input[name='city']",
	BillingRegion:  "input[name='state']",
	BillingZip:     "input[name='zip']",
	BillingSave:    "button[data-test='billing-save-btn']",
}

// DefaultSelectors 返回当前线上版本的选择器表。
func DefaultSelectors() Selectors {
	return selectorsV1
}
