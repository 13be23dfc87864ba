package llm

// Contract field definitions. Field order is stable and drives prompt
// rendering and export column order.

type fieldDef struct {
	Name        string
	Type        string // string | number | datetime
	Description string
}

var contractFields = []fieldDef{
	{"CustomerName", "string", "Name of the customer or company"},
	{"AccountID", "string", "Unique identifier for the customer account"},
	{"Quote", "string", "Quote number reference"},
	{"CommitmentTerms", "string", "Terms of commitment specified in the contract"},
	{"BuyingProgram", "string", "Type of buying program or plan"},
	{"CommitmentFee", "number", "Fee amount for the commitment"},
	{"SavingsPlanCredit", "number", "Credit amount from savings plan"},
	{"NetPayableFee", "number", "Net fee amount payable"},
	{"ContactName", "string", "Name of the primary contact person"},
	{"TermStartDate", "datetime", "Start date of the contract term"},
	{"RenewalDate", "datetime", "Date when the contract is up for renewal"},
	{"BillingTerms", "string", "Terms and conditions for billing"},
	{"PaymentTerms", "string", "Terms and conditions for payment"},
	{"PaymentMethod", "string", "Method of payment specified"},
	{"VATID", "string", "VAT identification number"},
	{"PO", "string", "Purchase Order number"},
	{"CompanyAddress1", "string", "Primary address line of the company"},
	{"CompanyAddress2", "string", "Secondary address line of the company"},
	{"City", "string", "City name from the address"},
	{"State", "string", "State or province name"},
	{"Zip", "string", "Postal or ZIP code"},
	{"Country", "string", "Country name"},
	{"EmailInvoiceTo", "string", "Email address for invoice delivery"},
	{"CustomerTitle", "string", "Title of the customer representative"},
	{"DateSigned", "datetime", "Date when the document was signed"},
}

// FieldNames returns the internal field names in stable order.
func FieldNames() []string {
	names := make([]string, len(contractFields))
	for i, f := range contractFields {
		names[i] = f.Name
	}
	return names
}

// BuildResponseJSONSchema returns the JSON-Schema (draft 2020-12 subset) for
// the full model response envelope. Every field is nullable: the model is
// instructed to return null for values absent from the document.
func BuildResponseJSONSchema() map[string]any {
	props := map[string]any{}
	for _, f := range contractFields {
		switch f.Type {
		case "number":
			props[f.Name] = map[string]any{"type": []string{"number", "string", "null"}}
		default:
			props[f.Name] = map[string]any{"type": []string{"string", "null"}}
		}
	}

	sourceSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":      map[string]any{"type": "string"},
			"reference": map[string]any{"type": "string"},
			"text":      map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"reference"},
	}
	citationSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":   map[string]any{},
			"sources": map[string]any{"type": "array", "items": sourceSchema},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"extracted_data": map[string]any{
				"type":                 "object",
				"properties":           props,
				"additionalProperties": false,
			},
			"citations": map[string]any{
				"type":                 "object",
				"additionalProperties": citationSchema,
			},
		},
		"required": []string{"extracted_data"},
	}
}

// fieldAliases maps internal field names to the external names some callers
// were built against. Consulted only at the serialization boundary.
var fieldAliases = map[string]string{
	"City":    "City1",
	"State":   "State1",
	"Zip":     "Zip1",
	"Country": "Country1",
}

var fieldAliasesReverse = func() map[string]string {
	m := make(map[string]string, len(fieldAliases))
	for internal, external := range fieldAliases {
		m[external] = internal
	}
	return m
}()

// ToExternalNames re-keys a field map with external aliases where one exists.
func ToExternalNames(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if alias, ok := fieldAliases[k]; ok {
			k = alias
		}
		out[k] = v
	}
	return out
}

// ToInternalNames re-keys a field map back to internal names.
func ToInternalNames(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if internal, ok := fieldAliasesReverse[k]; ok {
			k = internal
		}
		out[k] = v
	}
	return out
}
