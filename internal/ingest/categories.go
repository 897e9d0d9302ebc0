package ingest

// DefaultCodeCategories maps source transaction codes to categories. The
// codes come from the bank extract format; unknown codes fall through to
// the phrase table.
var DefaultCodeCategories = map[int64]string{
	110: "SALARY",
	117: "TRANSFER",
	120: "TRANSFER",
	201: "CARD",
	207: "FEES",
	215: "TAXES",
	302: "INVESTMENT",
	305: "INVESTMENT",
	410: "WITHDRAWAL",
	520: "UTILITIES",
	611: "LOAN",
}

// DefaultPhraseCategories is the ordered phrase table consulted when the
// code lookup misses. Earlier entries win.
var DefaultPhraseCategories = []PhraseCategory{
	{Phrase: "aplic", Category: "INVESTMENT"},
	{Phrase: "invest", Category: "INVESTMENT"},
	{Phrase: "salar", Category: "SALARY"},
	{Phrase: "payroll", Category: "SALARY"},
	{Phrase: "pix", Category: "TRANSFER"},
	{Phrase: "ted", Category: "TRANSFER"},
	{Phrase: "transfer", Category: "TRANSFER"},
	{Phrase: "card", Category: "CARD"},
	{Phrase: "cartao", Category: "CARD"},
	{Phrase: "supermerc", Category: "GROCERIES"},
	{Phrase: "grocer", Category: "GROCERIES"},
	{Phrase: "farmacia", Category: "HEALTH"},
	{Phrase: "pharma", Category: "HEALTH"},
	{Phrase: "aluguel", Category: "HOUSING"},
	{Phrase: "rent", Category: "HOUSING"},
	{Phrase: "energia", Category: "UTILITIES"},
	{Phrase: "electric", Category: "UTILITIES"},
	{Phrase: "tarifa", Category: "FEES"},
	{Phrase: "fee", Category: "FEES"},
	{Phrase: "imposto", Category: "TAXES"},
	{Phrase: "tax", Category: "TAXES"},
	{Phrase: "saque", Category: "WITHDRAWAL"},
	{Phrase: "withdraw", Category: "WITHDRAWAL"},
}
