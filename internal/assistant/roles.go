package assistant

// Role selects the fixed prompt template for one kind of word
// lookup. The set is closed; each role maps to exactly one system
// prompt.
type Role int

const (
	RoleDictionary Role = iota
	RoleSymbols
	RoleMore
	RoleEtymology
	RoleExample
	RoleCustom
)

func (r Role) String() string {
	switch r {
	case RoleDictionary:
		return "dictionary"
	case RoleSymbols:
		return "symbols"
	case RoleMore:
		return "more"
	case RoleEtymology:
		return "etymology"
	case RoleExample:
		return "example"
	case RoleCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// SystemPrompt returns the prompt-construction rule for the role
func (r Role) SystemPrompt() string {
	switch r {
	case RoleDictionary:
		return "Provides parts of speech, Chinese translation and clear definition suitable for English learners less than 20 words. Output format: [part of speech],[Chinese translation],[definition]"
	case RoleSymbols:
		return "Provide English and American pronunciation symbols. Output format: [English symbol],[American symbol]"
	case RoleMore:
		return "Provide one synonyms and additional notes about usage,including whether the word is formal, or used in specific contexts, less than 20 words. Output format: [synonym],[notes]"
	case RoleEtymology:
		return "Provide etymology or origin, less than 20 words. Output format: [etymology or origin]"
	case RoleExample:
		return "Provide one example sentences of less than 10 words. Output format: [example sentence]"
	case RoleCustom:
		return "Provide results upon request briefly, less than 20 words. Choose the language of your reply for English learners."
	default:
		return ""
	}
}
