package domain

type BankTag string

const (
	BankSber  BankTag = "sber"
	BankTBank BankTag = "tbank"
	BankAlfa  BankTag = "alfa"
)

func (b BankTag) Valid() bool {
	switch b {
	case BankSber, BankTBank, BankAlfa:
		return true
	default:
		return false
	}
}

type bankEntry struct {
	Tag      BankTag
	Literals []string
}

// bankRegistry maps each canonical bank tag to the literal spellings
// recognized in operator messages. Iteration order of the registry, not the
// order of appearance in the message, decides ties when several tags occur
// in one message.
var bankRegistry = []bankEntry{
	{Tag: BankSber, Literals: []string{"💚Сбер💚", "Сбер"}},
	{Tag: BankTBank, Literals: []string{"💛Тбанк💛", "💛Т-Банк💛", "Тинькофф", "Тиньков", "Т-банк", "Тбанк"}},
	{Tag: BankAlfa, Literals: []string{"❤️Альфа❤️", "Альфа"}},
}

// RecognizedBankLiterals returns the literal spellings accepted for the tag,
// in registry order.
func RecognizedBankLiterals(tag BankTag) []string {
	for _, entry := range bankRegistry {
		if entry.Tag == tag {
			return append([]string(nil), entry.Literals...)
		}
	}
	return nil
}
