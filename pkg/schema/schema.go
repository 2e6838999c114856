// Package schema defines the canonical child-care provider record: an
// ordered list of typed fields, a nullable Value cell type, and the Record
// that carries one provider through the pipeline.
package schema

import (
	"fmt"
)

// Canonical field names.
const (
	FieldAcceptsFinancialAid       = "accepts_financial_aid"
	FieldAgesServed                = "ages_served"
	FieldCapacity                  = "capacity"
	FieldCertificateExpirationDate = "certificate_expiration_date"
	FieldCity                      = "city"
	FieldAddress1                  = "address1"
	FieldAddress2                  = "address2"
	FieldCompany                   = "company"
	FieldPhone                     = "phone"
	FieldPhone2                    = "phone2"
	FieldCounty                    = "county"
	FieldCurriculumType            = "curriculum_type"
	FieldEmail                     = "email"
	FieldFirstName                 = "first_name"
	FieldLanguage                  = "language"
	FieldLastName                  = "last_name"
	FieldLicenseStatus             = "license_status"
	FieldLicenseIssued             = "license_issued"
	FieldLicenseNumber             = "license_number"
	FieldLicenseRenewed            = "license_renewed"
	FieldLicenseType               = "license_type"
	FieldLicenseeName              = "licensee_name"
	FieldMaxAge                    = "max_age"
	FieldMinAge                    = "min_age"
	FieldOperator                  = "operator"
	FieldProviderID                = "provider_id"
	FieldSchedule                  = "schedule"
	FieldState                     = "state"
	FieldTitle                     = "title"
	FieldWebsiteAddress            = "website_address"
	FieldZip                       = "zip"
	FieldFacilityType              = "facility_type"
	FieldSource                    = "source"

	// Pipeline metadata stamped by the mapper.
	FieldETLLoadTime    = "etl_load_time"
	FieldVersionNumber  = "version_number"
	FieldSourceFileName = "source_file_name"
)

// Field is one named, typed column of a schema.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Schema is an immutable ordered list of fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema. Field names must be non-empty and unique.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustNew is New that panics on error.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

var canonical = MustNew(
	Field{FieldAcceptsFinancialAid, KindBoolean},
	Field{FieldAgesServed, KindString},
	Field{FieldCapacity, KindInteger},
	Field{FieldCertificateExpirationDate, KindDate},
	Field{FieldCity, KindString},
	Field{FieldAddress1, KindString},
	Field{FieldAddress2, KindString},
	Field{FieldCompany, KindString},
	Field{FieldPhone, KindString},
	Field{FieldPhone2, KindString},
	Field{FieldCounty, KindString},
	Field{FieldCurriculumType, KindString},
	Field{FieldEmail, KindString},
	Field{FieldFirstName, KindString},
	Field{FieldLanguage, KindString},
	Field{FieldLastName, KindString},
	Field{FieldLicenseStatus, KindString},
	Field{FieldLicenseIssued, KindDate},
	Field{FieldLicenseNumber, KindInteger},
	Field{FieldLicenseRenewed, KindDate},
	Field{FieldLicenseType, KindString},
	Field{FieldLicenseeName, KindString},
	Field{FieldMaxAge, KindInteger},
	Field{FieldMinAge, KindInteger},
	Field{FieldOperator, KindString},
	Field{FieldProviderID, KindString},
	Field{FieldSchedule, KindString},
	Field{FieldState, KindString},
	Field{FieldTitle, KindString},
	Field{FieldWebsiteAddress, KindString},
	Field{FieldZip, KindString},
	Field{FieldFacilityType, KindString},
	Field{FieldSource, KindString},
	Field{FieldETLLoadTime, KindTimestamp},
	Field{FieldVersionNumber, KindString},
	Field{FieldSourceFileName, KindString},
)

// Canonical returns the provider schema every source is normalized into.
func Canonical() *Schema {
	return canonical
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the ordered field names.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is a field of the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// NewRecord returns a record holding a typed null for every field.
func (s *Schema) NewRecord() *Record {
	r := NewRecord()
	for _, f := range s.fields {
		r.values[f.Name] = Null(f.Kind)
	}
	return r
}

// Project returns the record's values in schema order. Missing fields appear
// as typed nulls; extra columns are left out.
func (s *Schema) Project(r *Record) Row {
	row := make(Row, len(s.fields))
	for i, f := range s.fields {
		v, ok := r.values[f.Name]
		if !ok {
			v = Null(f.Kind)
		}
		row[i] = Cell{Name: f.Name, Value: v}
	}
	return row
}
