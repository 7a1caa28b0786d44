package question

import "time"

// BankEntry is one question in both languages the community uses.
type BankEntry struct {
	English string
	Somali  string
}

var Bank = []BankEntry{
	{
		English: "What is your full name, where are you located, are you a student or have you completed your studies?",
		Somali:  "Magacaaga oo dhameestiran, meesha aad joogtaa, ma arday baa tahay mise waad dhameesay wax barashada?",
	},
	{
		English: "What is the job you are most interested in, and what makes it interesting?",
		Somali:  "Maxay tahay shaqada aad ugu xiiseynaysaa, maxaase ka dhigaya mid xiiso leh?",
	},
	{
		English: "What is your favorite hobby, and what have you learned from it?",
		Somali:  "Maxay tahay hobbigaaga ugu wanaagsan, maxaase ka baratay?",
	},
	{
		English: "Where did you grow up, and what did it teach you about life?",
		Somali:  "Meesha aad ku kordhay, maxay kaa barisay nolol ahaan?",
	},
	{
		English: "What is your biggest dream, and how do you plan to achieve it?",
		Somali:  "Maxay tahay riyada aad ugu weyn tahay, sidee u qorsheynaysaa inaad gaadhsiiso?",
	},
	{
		English: "What is your favorite time of day, and what makes it special?",
		Somali:  "Maxay tahay waqtiga aad ugu wanaagsan tahay maalinta, maxaase ka dhigaya mid gaar ah?",
	},
	{
		English: "What is your favorite food, and what makes it special?",
		Somali:  "Maxay tahay cunada aad ugu jeceshahay, maxaase ka dhigaya mid xiiso leh?",
	},
	{
		English: "What is the last book or movie you read/watched, and what did you learn from it?",
		Somali:  "Maxay tahay buugga ama filimka aad ugu dambeeyay akhriyay/daawatay, maxaase ka bartay?",
	},
	{
		English: "What is the trip you are most excited about, and what makes it interesting?",
		Somali:  "Maxay tahay safarka aad ugu xiiseynaysaa, maxaase ka dhigaya mid xiiso leh?",
	},
	{
		English: "What is your best skill, and how did you learn it?",
		Somali:  "Maxay tahay xirfadda aad ugu wanaagsan tahay, sidee u baratay?",
	},
}

// ForDay picks the bank entry for the calendar day of t.
func ForDay(t time.Time) BankEntry {
	return Bank[t.YearDay()%len(Bank)]
}
