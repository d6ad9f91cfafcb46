package bot

// Static replies. Markdown texts use Telegram's legacy Markdown dialect.
const (
	welcomeText = "👋 Hello, I am *codered* 🌸 — your friendly study companion! \n\n" +
		"My purpose is to help you stay strong in your journey, even if you feel low about marks, " +
		"attendance, or finances. 💡\n\n" +
		"I’ll share motivational quotes, guidance, and information about scholarships that might help. " +
		"Just tell me what’s on your mind, and we’ll work it out together 🤝.\n\n" +
		"👉 Use /scholarships to explore financial aid options."

	helpText = "🌟 I am *codered*, your supportive guide!\n\n" +
		"💬 You can share your worries with me, like:\n" +
		"- 'I am scared of failing in exams'\n" +
		"- 'I have low attendance'\n" +
		"- 'I may not afford fees'\n\n" +
		"Commands you can try:\n" +
		"👉 /start - Introduction\n" +
		"👉 /help - Guidance on how to talk to me\n" +
		"👉 /scholarships - Get a list of scholarship schemes 🎓\n" +
		"👉 /reset - Start our conversation afresh"

	scholarshipsText = "🎓 *Scholarship Opportunities for Students* \n\n" +
		"🌍 *Global Scholarships:*\n" +
		"1. [UNESCO Fellowships](https://www.unesco.org/fellowships)\n" +
		"2. [Chevening Scholarships](https://www.chevening.org/)\n" +
		"3. [Erasmus+](https://erasmus-plus.ec.europa.eu/)\n\n" +
		"🇮🇳 *Indian Scholarships:*\n" +
		"1. [National Scholarship Portal](https://scholarships.gov.in/)\n" +
		"2. [INSPIRE Scholarship](https://online-inspire.gov.in/)\n" +
		"3. [AICTE Pragati & Saksham](https://www.aicte-india.org/schemes/students-development-schemes)\n\n" +
		"🇺🇸 *US Scholarships:*\n" +
		"1. [Fulbright Program](https://foreign.fulbrightonline.org/)\n" +
		"2. [Gates Millennium Scholars](https://gmsp.org/)\n" +
		"3. [FAFSA Grants](https://studentaid.gov/)\n\n" +
		"💡 *Pro Tip:* Apply early and keep documents (marksheets, ID, income certificate) ready."

	resetText = "🌱 Fresh start! I have cleared our conversation. Tell me what’s on your mind."

	// ApologyText is shown whenever a turn cannot produce a reply.
	ApologyText = "😔 Sorry, I couldn’t think of a reply just now. Please try again in a moment. " +
		"If you are in distress, you can call Tele-MANAS at 14416 any time."

	tooLongText = "✂️ That message is a little too long for me. Could you share it in shorter parts?"
)
