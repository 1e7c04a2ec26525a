package schema

import (
	"github.com/joseph-ayodele/docverify/constants"
)

func f(key, desc string) Field { return Field{Key: key, Description: desc} }

var registry = map[constants.DocumentType][]Field{
	constants.Aadhaar: {
		f("name", "String"),
		f("aadhaar_number", "Integer, format: 12 digit number"),
		f("date_of_birth", "String format: DD-MM-YYYY"),
		f("address", "String"),
		f("gender", "Male|Female|Other"),
	},
	constants.BirthCert: {
		f("name", "String"),
		f("date_of_birth", "Date, format: DD-MM-YYYY"),
		f("father_name", "String"),
		f("mother_name", "String"),
	},
	constants.Marksheet: {
		f("name", "String"),
		f("date_of_birth", "Date, Format: DD-MM-YYYY"),
		f("father_name", "String"),
		f("mother_name", "String"),
		f("roll_number", "Integer"),
	},
	constants.DegreeCert: {
		f("name", "String"),
		f("university", "String"),
		f("date_of_birth", "Date Format (DD-MM-YYYY)"),
		f("degree", "String"),
		f("cgpa", "Float"),
		f("percentage", "Float"),
		f("class", "String"),
		f("qualification_degree", "String"),
	},
	constants.ProofOfClass: {
		f("name", "String"),
		f("class", "String"),
	},
	constants.ProvisionalCert: {
		f("name", "String"),
		f("degree", "String"),
		f("university", "String"),
		f("passing_year", "Integer"),
		f("qualification_degree", "String"),
	},
	constants.ExperienceCert: {
		f("from_date", "String Format(YYYY-MM-DD)"),
		f("to_date", "String Format(YYYY-MM-DD)"),
	},
	constants.GateScoreCard: {
		f("name", "String"),
		f("registration_number", "String, Mixed of string and Number"),
		f("year", "Integer(YYYY), Year of the GATE examination"),
		f("marks_out_of_100", "Float, 0.0 to 100.0"),
		f("all_india_rank_in_this_paper", "Integer"),
		f("gate_score", "Integer, 0 to 1000"),
	},
	constants.ProofOfCategory: {
		f("name", "String"),
		f("category", "String"),
	},
	constants.ProofOfAddress: {
		f("name", "String"),
		f("address", "String"),
	},
	constants.PhdCert: {
		f("name", "String"),
		f("university", "String"),
		f("Date_of_reg", "String (YYYY-MM-DD)"),
		f("title_of_project", "String"),
		f("no_of_papers_published", "Integer"),
		f("no_of_conference_attended", "Integer"),
	},
}

// Lookup returns the schema for a document type key. The returned Fields
// slice is a copy, so callers cannot reorder the registry.
func Lookup(docType string) (Schema, bool) {
	dt, ok := constants.CanonicalDocumentType(docType)
	if !ok {
		return Schema{}, false
	}
	fields, ok := registry[dt]
	if !ok {
		return Schema{}, false
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return Schema{Type: string(dt), Fields: out}, true
}

// All returns every schema in the canonical document-type order.
func All() []Schema {
	types := constants.DocumentTypes()
	out := make([]Schema, 0, len(types))
	for _, dt := range types {
		if s, ok := Lookup(string(dt)); ok {
			out = append(out, s)
		}
	}
	return out
}
