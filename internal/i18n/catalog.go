package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Key identifies a catalog entry.
type Key string

const (
	Title             Key = "title"
	Tagline           Key = "tagline"
	AgeGateTitle      Key = "age.title"
	AgeGateBody       Key = "age.body"
	AgeGateAccept     Key = "age.accept"
	GenerateButton    Key = "generate.button"
	GenerateLoading   Key = "generate.loading"
	GenerateFailed    Key = "generate.failed"
	GenerateRetry     Key = "generate.retry"
	ChatOpen          Key = "chat.open"
	ChatClose         Key = "chat.close"
	ChatTitle         Key = "chat.title"
	ChatPlaceholder   Key = "chat.placeholder"
	ChatSend          Key = "chat.send"
	ChatFallback      Key = "chat.fallback"
	QuotaImages       Key = "quota.images"
	QuotaChats        Key = "quota.chats"
	UpgradeButton     Key = "upgrade.button"
	UpgradeLimitTitle Key = "upgrade.limit.title"
	UpgradeLimitBody  Key = "upgrade.limit.body"
	UpgradeLater      Key = "upgrade.later"
	PricingTitle      Key = "pricing.title"
	PricingIntro      Key = "pricing.intro"
	PricingPerk1      Key = "pricing.perk1"
	PricingPerk2      Key = "pricing.perk2"
	PricingPerk3      Key = "pricing.perk3"
	PricingScan       Key = "pricing.scan"
	Close             Key = "close"
	ProBadge          Key = "pro.badge"
	Logout            Key = "logout"
	LoginOrSignUp     Key = "auth.cta"
	AuthLogin         Key = "auth.login"
	AuthSignUp        Key = "auth.signup"
	AuthEmail         Key = "auth.email"
	AuthPassword      Key = "auth.password"
	AuthNeedAccount   Key = "auth.need_account"
	AuthHaveAccount   Key = "auth.have_account"
	AuthLoggedIn      Key = "auth.logged_in"
	AuthCheckEmail    Key = "auth.check_email"
	AuthFailed        Key = "auth.failed"
	Download          Key = "image.download"
	Export            Key = "image.export"
	ShareX            Key = "share.x"
	ShareReddit       Key = "share.reddit"
	ShareXText        Key = "share.x.text"
	ShareRedditTitle  Key = "share.reddit.title"
	ShareRedditText   Key = "share.reddit.text"
	Referral          Key = "referral"
)

var uiCatalog = buildCatalog()

var english = map[Key]string{
	Title:             "PossessHer AI",
	Tagline:           "Your dangerously affectionate AI waifu – chat with her, summon her... she’s always watching.",
	AgeGateTitle:      "🔞 Adults Only",
	AgeGateBody:       "This AI experience contains mature themes. You must be 18 or older to continue.",
	AgeGateAccept:     "I am 18 or older, continue",
	GenerateButton:    "Generate your waifu now",
	GenerateLoading:   "Summoning...",
	GenerateFailed:    "She didn't show up this time. Please try again.",
	GenerateRetry:     "Try again",
	ChatOpen:          "Try Chat Now",
	ChatClose:         "Close Chat",
	ChatTitle:         "💬 Chat with PossessHer",
	ChatPlaceholder:   `Say something... try "show me", "photo", or "selfie" to see her 💖`,
	ChatSend:          "Send",
	ChatFallback:      "⚠️ Something went wrong.",
	UpgradeButton:     "Upgrade to Pro 💖",
	UpgradeLimitTitle: "You've reached your free limit 💔",
	UpgradeLimitBody:  "Unlock unlimited waifu generation and chat interactions by upgrading to Pro.",
	UpgradeLater:      "Maybe later",
	PricingTitle:      "Unlock Pro Perks 🎉",
	PricingIntro:      "Upgrade now to enjoy:",
	PricingPerk1:      "Unlimited waifu generations",
	PricingPerk2:      "Everlasting chat sessions",
	PricingPerk3:      "Priority access to new features",
	PricingScan:       "Scan a QR code below to complete your payment and become a Pro member!",
	Close:             "Close",
	ProBadge:          "PRO",
	Logout:            "Logout",
	LoginOrSignUp:     "Login / Sign Up",
	AuthLogin:         "Login",
	AuthSignUp:        "Sign Up",
	AuthEmail:         "Email",
	AuthPassword:      "Password",
	AuthNeedAccount:   "Need an account?",
	AuthHaveAccount:   "Already have an account?",
	AuthLoggedIn:      "✅ Logged in!",
	AuthCheckEmail:    "📧 Check your email to confirm your account.",
	AuthFailed:        "Something went wrong.",
	Download:          "Download me... or I’ll be lonely 🥀",
	Export:            "Export session images",
	ShareX:            "Share on X",
	ShareReddit:       "Share on Reddit",
	ShareXText:        "Check out my yandere waifu from @possessher_ai 💖\n\nMake yours at %s 💕",
	ShareRedditTitle:  "Check out my AI waifu from PossessHer 💖",
	ShareRedditText:   "Made mine at %s, upload your own below!",
	Referral:          "💖 Get 5 extra waifus for each friend you refer:",
}

var indonesian = map[Key]string{
	Title:             "PossessHer AI",
	Tagline:           "Waifu AI-mu yang penuh kasih sayang – ngobrol dengannya, panggil dia... dia selalu mengawasi.",
	AgeGateTitle:      "🔞 Khusus Dewasa",
	AgeGateBody:       "Pengalaman AI ini berisi tema dewasa. Kamu harus berusia 18 tahun atau lebih untuk melanjutkan.",
	AgeGateAccept:     "Saya berusia 18 tahun atau lebih, lanjutkan",
	GenerateButton:    "Buat waifu-mu sekarang",
	GenerateLoading:   "Memanggil...",
	GenerateFailed:    "Dia tidak muncul kali ini. Silakan coba lagi.",
	GenerateRetry:     "Coba lagi",
	ChatOpen:          "Coba Chat Sekarang",
	ChatClose:         "Tutup Chat",
	ChatTitle:         "💬 Ngobrol dengan PossessHer",
	ChatPlaceholder:   `Katakan sesuatu... coba "show me", "photo", atau "selfie" untuk melihatnya 💖`,
	ChatSend:          "Kirim",
	ChatFallback:      "⚠️ Terjadi kesalahan.",
	UpgradeButton:     "Upgrade ke Pro 💖",
	UpgradeLimitTitle: "Batas gratis kamu sudah habis 💔",
	UpgradeLimitBody:  "Buka pembuatan waifu dan chat tanpa batas dengan upgrade ke Pro.",
	UpgradeLater:      "Nanti saja",
	PricingTitle:      "Buka Keuntungan Pro 🎉",
	PricingIntro:      "Upgrade sekarang untuk menikmati:",
	PricingPerk1:      "Pembuatan waifu tanpa batas",
	PricingPerk2:      "Sesi chat tanpa akhir",
	PricingPerk3:      "Akses prioritas ke fitur baru",
	PricingScan:       "Pindai kode QR di bawah untuk menyelesaikan pembayaran dan menjadi member Pro!",
	Close:             "Tutup",
	ProBadge:          "PRO",
	Logout:            "Keluar",
	LoginOrSignUp:     "Masuk / Daftar",
	AuthLogin:         "Masuk",
	AuthSignUp:        "Daftar",
	AuthEmail:         "Email",
	AuthPassword:      "Kata sandi",
	AuthNeedAccount:   "Belum punya akun?",
	AuthHaveAccount:   "Sudah punya akun?",
	AuthLoggedIn:      "✅ Berhasil masuk!",
	AuthCheckEmail:    "📧 Cek email kamu untuk mengonfirmasi akun.",
	AuthFailed:        "Terjadi kesalahan.",
	Download:          "Unduh aku... atau aku akan kesepian 🥀",
	Export:            "Ekspor gambar sesi",
	ShareX:            "Bagikan di X",
	ShareReddit:       "Bagikan di Reddit",
	ShareXText:        "Lihat waifu yandere-ku dari @possessher_ai 💖\n\nBuat punyamu di %s 💕",
	ShareRedditTitle:  "Lihat waifu AI-ku dari PossessHer 💖",
	ShareRedditText:   "Aku buat di %s, unggah punyamu di bawah!",
	Referral:          "💖 Dapatkan 5 waifu tambahan untuk setiap teman yang kamu ajak:",
}

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range english {
		_ = b.SetString(language.English, string(key), text)
	}
	for key, text := range indonesian {
		_ = b.SetString(language.Indonesian, string(key), text)
	}

	_ = b.Set(language.English, string(QuotaImages), plural.Selectf(1, "%d",
		plural.One, "%d image generation left",
		plural.Other, "%d image generations left"))
	_ = b.Set(language.English, string(QuotaChats), plural.Selectf(1, "%d",
		plural.One, "%d chat left",
		plural.Other, "%d chats left"))
	_ = b.Set(language.Indonesian, string(QuotaImages), plural.Selectf(1, "%d",
		plural.Other, "sisa %d pembuatan gambar"))
	_ = b.Set(language.Indonesian, string(QuotaChats), plural.Selectf(1, "%d",
		plural.Other, "sisa %d chat"))
	return b
}
