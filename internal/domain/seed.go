package domain

// SeedGiftRecipients returns the built-in recipient list. It seeds the
// database on first start and doubles as the static catalog when no database
// is configured, so the site keeps working (without live updates) before the
// backing store exists.
//
// The returned slice is freshly allocated on every call; callers may mutate
// their copy freely.
func SeedGiftRecipients() []GiftRecipient {
	return []GiftRecipient{
		{
			ID:                "1",
			Name:              "Rimy",
			Story:             "Rimy wants to honor her emotional support hero Papa who passed earlier this year. This meaningful gift will help her keep his memory close during the holiday season.",
			GiftTitle:         "Pet Memorial Frame",
			GiftDescription:   "Dog memorial frame with collar holder - a beautiful way to honor and remember Papa",
			GiftPrice:         29,
			AmazonWishlistURL: "https://a.co/d/2oPvhRE",
			OrnamentColor:     "red",
			PositionTop:       "22%",
			PositionLeft:      "46%",
		},
		{
			ID:                "2",
			Name:              "Chyenne",
			Story:             "Chyenne loves music and has a record player. This gift will help her build her vinyl collection and enjoy great music during the holidays.",
			GiftTitle:         "The Best of Sade LP",
			GiftDescription:   "Vinyl record to enjoy great music on her record player",
			GiftPrice:         38,
			AmazonWishlistURL: "https://a.co/d/bfkoLw1",
			OrnamentColor:     "gold",
			PositionTop:       "38%",
			PositionLeft:      "57%",
		},
		{
			ID:                "3",
			Name:              "Abril",
			Story:             "Abril would love a YETI mug to keep their drinks cool. This durable, high-quality mug will be a daily companion for staying hydrated.",
			GiftTitle:         "YETI Travel Mug",
			GiftDescription:   "YETI Rambler 20 oz stainless steel travel mug with vacuum insulation",
			GiftPrice:         42,
			AmazonWishlistURL: "https://www.amazon.com/dp/B0B3SHFPB6",
			OrnamentColor:     "blue",
			PositionTop:       "52%",
			PositionLeft:      "40%",
		},
		{
			ID:                "4",
			Name:              "Jennifer",
			Story:             "Jennifer needs a massage gun to help with shoulder pain after a car accident. This therapeutic tool will provide relief and support her recovery.",
			GiftTitle:         "Deep Tissue Massage Gun",
			GiftDescription:   "OLsky massage gun with 9 attachments & 30 speeds for pain relief",
			GiftPrice:         33,
			AmazonWishlistURL: "https://a.co/d/aCC0hiV",
			OrnamentColor:     "green",
			PositionTop:       "65%",
			PositionLeft:      "54%",
		},
	}
}
