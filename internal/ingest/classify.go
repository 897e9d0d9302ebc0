package ingest

import (
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// investmentKeywords mark transfers into investment products. The keyword
// match drives the kind even for debits: an investment transfer is
// semantically distinct from an ordinary expense although money still
// leaves the account.
var investmentKeywords = []string{"invest", "aplic"}

// CategoryResolver resolves a category for a transaction, or reports that
// it cannot. Resolvers are evaluated in order; the first match wins.
type CategoryResolver interface {
	Resolve(code int64, description, complementary string) (string, bool)
}

// codeTableResolver resolves by exact transaction-code lookup.
type codeTableResolver struct {
	table map[int64]string
}

func (r *codeTableResolver) Resolve(code int64, description, complementary string) (string, bool) {
	if code == 0 {
		return "", false
	}
	category, ok := r.table[code]
	return category, ok
}

// PhraseCategory associates a known phrase with a category. Order matters:
// earlier entries win.
type PhraseCategory struct {
	Phrase   string
	Category string
}

// phraseResolver resolves by case-insensitive substring match against the
// description and complementary description.
type phraseResolver struct {
	entries []PhraseCategory
}

func (r *phraseResolver) Resolve(code int64, description, complementary string) (string, bool) {
	haystack := strings.ToLower(description + " " + complementary)
	for _, e := range r.entries {
		if strings.Contains(haystack, strings.ToLower(e.Phrase)) {
			return e.Category, true
		}
	}
	return "", false
}

// Classifier maps a transaction-code/description pair to a category and a
// kind. Lookup tables are injected at construction so the classifier stays
// a pure, independently testable mapping.
type Classifier struct {
	resolvers []CategoryResolver
}

// NewClassifier builds a classifier over the given code table and ordered
// phrase table, with the OTHER default as the final fallback.
func NewClassifier(codeTable map[int64]string, phrases []PhraseCategory) *Classifier {
	return &Classifier{
		resolvers: []CategoryResolver{
			&codeTableResolver{table: codeTable},
			&phraseResolver{entries: phrases},
		},
	}
}

// NewDefaultClassifier builds a classifier over the built-in tables.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultCodeCategories, DefaultPhraseCategories)
}

// Classify resolves kind and category for a normalized transaction and
// materializes the signed amount from IsDebit. Investment keyword match
// wins over the debit/credit split for the kind, but not for the sign.
func (c *Classifier) Classify(raw domain.RawLedgerEntry, tx domain.NormalizedTransaction) domain.ClassifiedTransaction {
	out := domain.ClassifiedTransaction{
		NormalizedTransaction: tx,
		Category:              c.resolveCategory(raw.TransactionCode, tx.Description, tx.ComplementaryDescription),
		Kind:                  resolveKind(tx.Description, tx.IsDebit),
		Amount:                tx.Magnitude.Abs(),
	}
	if tx.IsDebit {
		out.Amount = out.Amount.Neg()
	}
	return out
}

func (c *Classifier) resolveCategory(code int64, description, complementary string) string {
	for _, r := range c.resolvers {
		if category, ok := r.Resolve(code, description, complementary); ok && category != "" {
			return category
		}
	}
	return domain.CategoryOther
}

func resolveKind(description string, isDebit bool) domain.Kind {
	if isInvestmentDescription(description) {
		return domain.KindInvestment
	}
	if isDebit {
		return domain.KindExpense
	}
	return domain.KindDeposit
}

func isInvestmentDescription(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range investmentKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
