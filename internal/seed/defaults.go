package seed

import "storefront/internal/models"

const (
	imgFacebook  = "https://images.unsplash.com/photo-1611162616475-46b635cb6868?w=800&q=80"
	imgInstagram = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?w=800&q=80"
	imgTikTok    = "https://images.unsplash.com/photo-1611162618071-b39a2ec055fb?w=800&q=80"
	imgYouTube   = "https://images.unsplash.com/photo-1611162616305-c69b3fa7fbe0?w=800&q=80"
	imgTwitter   = "https://images.unsplash.com/photo-1611605698335-8b1569810432?w=800&q=80"
	imgSnapchat  = "https://images.unsplash.com/photo-1611926653458-09294b3142bf?w=800&q=80"
)

var defaultPlatforms = []models.Platform{
	{ID: "facebook", Name: "Facebook", Description: "Boost your Facebook presence with likes, followers, and engagement", Image: imgFacebook, Color: "#1877F2"},
	{ID: "instagram", Name: "Instagram", Description: "Grow your Instagram with real followers, likes, and views", Image: imgInstagram, Color: "#E4405F"},
	{ID: "tiktok", Name: "TikTok", Description: "Viral TikTok growth with followers, views, and engagement", Image: imgTikTok, Color: "#000000"},
	{ID: "youtube", Name: "YouTube", Description: "Increase YouTube subscribers, views, and watch time", Image: imgYouTube, Color: "#FF0000"},
	{ID: "twitter", Name: "Twitter / X", Description: "Build your Twitter following with quality engagement", Image: imgTwitter, Color: "#1DA1F2"},
	{ID: "snapchat", Name: "Snapchat", Description: "Grow your Snapchat with real followers and views", Image: imgSnapchat, Color: "#FFFC00"},
}

func prices(sar, egp, usd float64) *models.Prices {
	return &models.Prices{SAR: sar, EGP: egp, USD: usd}
}

var defaultServices = []models.Service{
	// Facebook
	{
		ID: "fb-likes", Title: "Facebook Page Likes",
		Description:     "Increase your Facebook page likes with real users",
		FullDescription: "Boost your Facebook page credibility with genuine page likes from real, active users. Our service delivers authentic engagement to help grow your online presence.",
		Prices:          prices(75, 500, 20), DeliveryTime: "24-48 hours", Guarantee: "30-day refill guarantee",
		Image: imgFacebook, Platform: "facebook", ServiceType: "Likes",
	},
	{
		ID: "fb-followers", Title: "Facebook Followers",
		Description:     "Get real Facebook profile followers",
		FullDescription: "Grow your Facebook profile with authentic followers who are interested in your content. Perfect for building your personal brand.",
		Prices:          prices(100, 650, 27), DeliveryTime: "24-72 hours", Guarantee: "30-day refill guarantee",
		Image: imgFacebook, Platform: "facebook", ServiceType: "Followers",
	},
	{
		ID: "fb-comments", Title: "Facebook Comments",
		Description:     "Real comments on your Facebook posts",
		FullDescription: "Boost engagement on your posts with authentic comments from real users. Custom comments available upon request.",
		Prices:          prices(150, 950, 40), DeliveryTime: "12-24 hours", Guarantee: "Quality guarantee",
		Image: imgFacebook, Platform: "facebook", ServiceType: "Comments",
	},
	// Instagram
	{
		ID: "ig-likes", Title: "Instagram Likes",
		Description:     "Get real Instagram likes on your posts",
		FullDescription: "Elevate your Instagram posts with authentic likes from real, active users. Improve your engagement rate and visibility.",
		Prices:          prices(50, 350, 13), DeliveryTime: "1-12 hours", Guarantee: "30-day refill guarantee",
		Image: imgInstagram, Platform: "instagram", ServiceType: "Likes",
	},
	{
		ID: "ig-followers", Title: "Instagram Followers",
		Description:     "Grow your Instagram with real followers",
		FullDescription: "Build your Instagram presence with high-quality followers from real accounts. Gradual delivery ensures account safety.",
		Prices:          prices(85, 550, 23), DeliveryTime: "24-48 hours", Guarantee: "60-day refill guarantee",
		Image: imgInstagram, Platform: "instagram", ServiceType: "Followers",
	},
	{
		ID: "ig-views", Title: "Instagram Reels Views",
		Description:     "Boost your Reels with real views",
		FullDescription: "Increase your Instagram Reels visibility with genuine views from real users. Perfect for going viral.",
		Prices:          prices(30, 200, 8), DeliveryTime: "1-6 hours", Guarantee: "Quality guarantee",
		Image: imgInstagram, Platform: "instagram", ServiceType: "Views",
	},
	// TikTok
	{
		ID: "tt-followers", Title: "TikTok Followers",
		Description:     "Get real TikTok followers fast",
		FullDescription: "Grow your TikTok presence with authentic followers who engage with your content. Perfect for creators and brands.",
		Prices:          prices(90, 600, 24), DeliveryTime: "24-48 hours", Guarantee: "30-day refill guarantee",
		Image: imgTikTok, Platform: "tiktok", ServiceType: "Followers",
	},
	{
		ID: "tt-likes", Title: "TikTok Likes",
		Description:     "Boost your TikTok videos with likes",
		FullDescription: "Increase engagement on your TikTok videos with real likes from active users. Help your content go viral.",
		Prices:          prices(45, 300, 12), DeliveryTime: "1-12 hours", Guarantee: "30-day refill guarantee",
		Image: imgTikTok, Platform: "tiktok", ServiceType: "Likes",
	},
	{
		ID: "tt-views", Title: "TikTok Views",
		Description:     "Get more views on your TikTok videos",
		FullDescription: "Boost your TikTok video views with real, high-retention views. Improve your chances of landing on the For You page.",
		Prices:          prices(25, 170, 7), DeliveryTime: "1-6 hours", Guarantee: "Quality guarantee",
		Image: imgTikTok, Platform: "tiktok", ServiceType: "Views",
	},
	// YouTube
	{
		ID: "yt-subscribers", Title: "YouTube Subscribers",
		Description:     "Grow your YouTube channel subscribers",
		FullDescription: "Build your YouTube channel with real subscribers who are interested in your content. Gradual delivery for natural growth.",
		Prices:          prices(150, 1000, 40), DeliveryTime: "48-72 hours", Guarantee: "90-day refill guarantee",
		Image: imgYouTube, Platform: "youtube", ServiceType: "Subscribers",
	},
	{
		ID: "yt-views", Title: "YouTube Views",
		Description:     "Increase your video views",
		FullDescription: "Boost your YouTube video performance with real, high-retention views. Improve your video ranking and visibility.",
		Prices:          prices(80, 520, 21), DeliveryTime: "24-48 hours", Guarantee: "90-day retention guarantee",
		Image: imgYouTube, Platform: "youtube", ServiceType: "Views",
	},
	{
		ID: "yt-likes", Title: "YouTube Likes",
		Description:     "Get real likes on your YouTube videos",
		FullDescription: "Increase engagement on your YouTube videos with authentic likes from real viewers.",
		Prices:          prices(60, 400, 16), DeliveryTime: "12-24 hours", Guarantee: "60-day guarantee",
		Image: imgYouTube, Platform: "youtube", ServiceType: "Likes",
	},
	// Twitter
	{
		ID: "tw-followers", Title: "Twitter Followers",
		Description:     "Build your Twitter audience",
		FullDescription: "Grow your Twitter influence with high-quality followers interested in your content.",
		Prices:          prices(70, 450, 19), DeliveryTime: "24-48 hours", Guarantee: "30-day refill guarantee",
		Image: imgTwitter, Platform: "twitter", ServiceType: "Followers",
	},
	{
		ID: "tw-likes", Title: "Twitter Likes",
		Description:     "Get likes on your tweets",
		FullDescription: "Boost your tweet engagement with real likes from active Twitter users.",
		Prices:          prices(40, 260, 11), DeliveryTime: "1-12 hours", Guarantee: "30-day guarantee",
		Image: imgTwitter, Platform: "twitter", ServiceType: "Likes",
	},
	// Snapchat
	{
		ID: "sc-followers", Title: "Snapchat Followers",
		Description:     "Grow your Snapchat following",
		FullDescription: "Increase your Snapchat presence with real followers who engage with your content.",
		Prices:          prices(95, 620, 25), DeliveryTime: "24-72 hours", Guarantee: "30-day refill guarantee",
		Image: imgSnapchat, Platform: "snapchat", ServiceType: "Followers",
	},
	{
		ID: "sc-views", Title: "Snapchat Story Views",
		Description:     "Get more views on your stories",
		FullDescription: "Boost your Snapchat story views with real viewers.",
		Prices:          prices(35, 230, 9), DeliveryTime: "1-12 hours", Guarantee: "Quality guarantee",
		Image: imgSnapchat, Platform: "snapchat", ServiceType: "Views",
	},
}

// Default payment destinations. Account numbers are placeholders an admin
// replaces from the dashboard.
var defaultPaymentMethods = []models.PaymentMethod{
	{ID: "stc-pay-sar", Method: "STC Pay", AccountNumber: "0500000000", QRURL: "", Currency: "SAR"},
	{ID: "al-rajhi-sar", Method: "Al Rajhi", AccountNumber: "1234567890123456", QRURL: "", Currency: "SAR"},
	{ID: "vodafone-cash-egp", Method: "Vodafone Cash", AccountNumber: "01000000000", QRURL: "", Currency: "EGP"},
}

var defaultAdminCredentials = []models.AdminCredential{
	{ID: "admin", Username: "admin", Password: "admin123"},
}

// PackageTiers are the unit counts of the derived default packages
var PackageTiers = []int{100, 1000}

// MostRequestedCount is how many services the derived highlight list holds
const MostRequestedCount = 6
