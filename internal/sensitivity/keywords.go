package sensitivity

// Built-in keyword table, grouped by the dropout-risk topic it signals.
// Entries are literal substrings; matching is case-insensitive after NFC
// normalisation. Romanised Hindi is listed alongside Devanagari because
// students type both. Short English words are phrased in context so they
// don't fire inside unrelated words ("Hispanic", "coffees", "broadcaster").
var defaultCategories = map[string][]string{
	"mental_health": {
		"anxiety", "anxious", "depression", "depressed", "stress", "panic attack", "panicking",
		"suicide", "suicidal", "kill myself", "end my life", "self harm", "self-harm",
		"hopeless", "worthless", "lonely", "scared", "afraid", "overwhelmed",
		"can't cope", "cannot cope", "want to die",
		"pareshan", "tension", "udaas", "akela",
		"अवसाद", "तनाव", "चिंता", "डर", "आत्महत्या", "अकेला", "अकेली", "उदास", "घबराहट",
	},
	"family_pressure": {
		"family pressure", "parents pressure", "pressure from parents", "parents are angry",
		"forced to", "forced marriage", "early marriage", "dowry", "domestic violence",
		"ghar wale", "gharwale", "shaadi", "mummy papa",
		"घरवाले", "घर वाले", "शादी", "दबाव", "माता-पिता",
	},
	"academic_failure": {
		"fail", "low marks", "bad marks", "poor marks", "low grades", "low attendance",
		"attendance shortage", "short attendance", "detained", "backlog", "arrear",
		"drop out", "dropout", "drop-out", "quit school", "leave school", "leave college",
		"can't afford", "cannot afford", "pay fees", "pay the fees", "pay my fees", "afford fees", "afford the fees", "fees due",
		"kam number", "padhai chhod",
		"फेल", "कम अंक", "कम नंबर", "उपस्थिति", "पढ़ाई छोड़", "फीस",
	},
	"social_stigma": {
		"bullied", "bullying", "harassed", "harassment", "ragging", "discrimination",
		"caste discrimination", "because of my caste", "ashamed", "humiliated", "shame", "taunt", "mocked",
		"मज़ाक", "ताना", "भेदभाव", "शर्म", "जाति",
	},
}
