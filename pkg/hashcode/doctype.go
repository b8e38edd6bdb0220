package hashcode

// DocumentType describes a known document-type prefix.
type DocumentType struct {
	// Prefix is the two-letter code embedded in hash codes (e.g., "CM").
	Prefix string `json:"prefix"`

	// Code is the internal type identifier (e.g., "carta_manifestacion").
	Code string `json:"code"`

	// Display is the human-readable type name.
	Display string `json:"display"`
}

// documentTypes is the registry of known document types, keyed by prefix.
// Unknown prefixes are still accepted by Parse and Generate; this table only
// drives display names and the type catalog endpoint.
var documentTypes = map[string]DocumentType{
	"CM": {Prefix: "CM", Code: "carta_manifestacion", Display: "Carta de Manifestacion"},
	"IA": {Prefix: "IA", Code: "informe_auditoria", Display: "Informe de Auditoria"},
	"CE": {Prefix: "CE", Code: "carta_encargo", Display: "Carta de Encargo"},
	"IR": {Prefix: "IR", Code: "informe_revision", Display: "Informe de Revision"},
	"OT": {Prefix: "OT", Code: "otros", Display: "Otros Documentos"},
}

// TypeForPrefix returns the document type for a two-letter prefix.
// The second return value is false for unknown prefixes.
func TypeForPrefix(prefix string) (DocumentType, bool) {
	dt, ok := documentTypes[Normalize(prefix)]
	return dt, ok
}

// TypeForCode returns the document type for a HashCode's prefix.
func TypeForCode(code HashCode) (DocumentType, bool) {
	return TypeForPrefix(code.Prefix())
}

// ValidPrefixes returns all registered prefixes in stable order.
func ValidPrefixes() []string {
	return []string{"CM", "IA", "CE", "IR", "OT"}
}

// DocumentTypes returns all registered document types in stable order.
func DocumentTypes() []DocumentType {
	prefixes := ValidPrefixes()
	types := make([]DocumentType, 0, len(prefixes))
	for _, p := range prefixes {
		types = append(types, documentTypes[p])
	}
	return types
}
