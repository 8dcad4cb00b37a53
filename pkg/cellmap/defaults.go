package cellmap

type headingSpec struct {
	cell     string
	heading  string
	datatype Datatype
}

var defaultSections = []struct {
	title    string
	headings []headingSpec
}{
	{
		title: "Company Information",
		headings: []headingSpec{
			{"B8", "Company Name", DatatypeText},
			{"B9", "Street Address", DatatypeText},
			{"B10", "City, State, Zip", DatatypeText},
			{"B11", "Phone", DatatypeText},
			{"B12", "Email", DatatypeEmail},
		},
	},
	{
		title: "Invoice Details",
		headings: []headingSpec{
			{"B2", "Invoice Title", DatatypeText},
			{"B5", "Invoice Number", DatatypeText},
			{"F4", "Date", DatatypeDate},
			{"G4", "Due Date", DatatypeDate},
		},
	},
	{
		title: "Bill To",
		headings: []headingSpec{
			{"B15", "Customer Name", DatatypeText},
			{"B16", "Customer Company", DatatypeText},
			{"B17", "Customer Address", DatatypeText},
			{"B18", "Customer City, State, Zip", DatatypeText},
			{"B19", "Customer Phone", DatatypeText},
			{"B20", "Customer Email", DatatypeEmail},
		},
	},
}

// DefaultMapping returns the mapping assigned to templates that ship without
// one: company information, invoice details and bill-to headings.
func DefaultMapping() Mapping {
	mapping := Mapping{Entries: make([]Entry, 0, len(defaultSections))}
	for _, section := range defaultSections {
		group := Group{Entries: make([]Entry, 0, len(section.headings))}
		for _, h := range section.headings {
			group.Entries = append(group.Entries, Entry{
				Key:   h.cell,
				Value: Heading{Cell: h.cell, Heading: h.heading, Datatype: h.datatype},
			})
		}
		mapping.Entries = append(mapping.Entries, Entry{Key: section.title, Value: group})
	}
	return mapping
}
