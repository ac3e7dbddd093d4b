package schema

// Built-in sources. The column lists mirror the exports we actually receive;
// new variants only need a Register call.

// SendGrid is the authoritative contact export from the marketing platform.
var SendGrid = Source{
	Key:   "sendgrid",
	Label: "SendGrid contact export",

	Email:       "EMAIL",
	DisplayName: "NAME",
	FirstName:   "FIRST_NAME",
	LastName:    "LAST_NAME",
	Company:     "COMPANY_NAME",

	Columns: []string{
		"EMAIL",
		"FIRST_NAME",
		"LAST_NAME",
		"ADDRESS_LINE_1",
		"ADDRESS_LINE_2",
		"CITY",
		"STATE_PROVINCE_REGION",
		"POSTAL_CODE",
		"COUNTRY",
		"ALTERNATE_EMAILS",
		"PHONE_NUMBER",
		"WHATSAPP",
		"LINE",
		"FACEBOOK",
		"UNIQUE_NAME",
		"CREATED_AT",
		"UPDATED_AT",
		"CONTACT_ID",
		"NAME",
		"CAR",
		"COMPANY_NAME",
		"PHONE_NUMBER_ID",
		"EXTERNAL_ID",
		"ANONYMOUS_ID",
	},
}

// CRM is the customer list exported from the shop CRM.
var CRM = Source{
	Key:   "crm",
	Label: "CRM customer export",

	Email:       "EMAIL",
	DisplayName: "NAME",
	Company:     "COMPANY_NAME",

	Columns: []string{"EMAIL", "NAME", "COMPANY_NAME"},
}

// Legacy is the earlier-generation master list with lower-cased headers.
var Legacy = Source{
	Key:   "legacy",
	Label: "Legacy master list",

	Email:       "email_address",
	DisplayName: "Name",
	Company:     "company_name",

	Columns: []string{"email_address", "Name", "company_name"},
}

// Shop holds rows recovered from the shop-management system's printed
// customer report (PDF text reduced to rows by internal/pdftext).
var Shop = Source{
	Key:   "shop",
	Label: "Shop management report",

	Email:       "e-mail address",
	DisplayName: "customer name",
	Company:     "company",

	Columns: []string{"e-mail address", "customer name", "company"},
}

func init() {
	Register(SendGrid)
	Register(CRM)
	Register(Legacy)
	Register(Shop)
}
