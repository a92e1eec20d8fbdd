package ingest

// Field identifies a canonical CSV column independently of the literal
// header label used by a particular spreadsheet export.
type Field string

const (
	FieldRowNumber  Field = "row_number"
	FieldDocument   Field = "document"
	FieldFirstName  Field = "first_name"
	FieldLastName   Field = "last_name"
	FieldFullName   Field = "full_name"
	FieldGender     Field = "gender"
	FieldDepartment Field = "department"
	FieldSchool     Field = "school"
	FieldPhone      Field = "phone"
	FieldEmail      Field = "email"
	FieldArea       Field = "area"
	FieldGrade      Field = "grade"
	FieldLevel      Field = "level"
	FieldTutorPhone Field = "tutor_phone"
	FieldTutorName  Field = "tutor_name"
)

type FieldSpec struct {
	ID      Field
	Header  string   // canonical literal header, used in correction hints
	Aliases []string // normalized labels accepted for this column
	// Required marks the column as mandatory in the header row. Whether the
	// value itself may be empty is governed by Schema.RequiredValues.
	Required bool
}

// Schema describes one generation of the competitor CSV format. Every
// behavioral difference between generations lives here as data so that a
// new schema version never needs a new code path.
type Schema struct {
	Name           string
	Fields         []FieldSpec
	RequiredValues []Field
	// GenderValues lists the accepted (uppercased) gender codes. Empty
	// means any non-empty value is accepted.
	GenderValues []string
	// AutoCreateAreas lazily creates unknown areas instead of rejecting
	// the row.
	AutoCreateAreas bool
	// ScopeAreasToOlympiad additionally requires each area to be
	// configured for the target olympiad.
	ScopeAreasToOlympiad bool
	// RejectKnownDocument treats an already registered CI document as a
	// row error; otherwise the contestant is updated in place.
	RejectKnownDocument bool
	MaxAreasPerRow      int
}

// ExpectedHeaders returns the canonical header row of the schema, used in
// the correction hint of header-level error reports.
func (s *Schema) ExpectedHeaders() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Header)
	}
	return out
}

// DefaultSchemas returns the built-in schema generations, most recent
// first. Header matching tries them in order.
func DefaultSchemas() []*Schema {
	strict := &Schema{
		Name: "v2",
		Fields: []FieldSpec{
			{ID: FieldRowNumber, Header: "N.", Aliases: []string{"n.", "n", "nro", "no."}},
			{ID: FieldDocument, Header: "CI", Aliases: []string{"ci", "doc.", "documento"}, Required: true},
			{ID: FieldFirstName, Header: "NOMBRE", Aliases: []string{"nombre", "nombres"}, Required: true},
			{ID: FieldLastName, Header: "APELLIDO", Aliases: []string{"apellido", "apellidos"}, Required: true},
			{ID: FieldGender, Header: "GENERO", Aliases: []string{"genero", "género", "gen"}, Required: true},
			{ID: FieldDepartment, Header: "DEPARTAMENTO", Aliases: []string{"departamento", "dep."}, Required: true},
			{ID: FieldSchool, Header: "COLEGIO", Aliases: []string{"colegio", "unidad educativa"}, Required: true},
			{ID: FieldPhone, Header: "CELULAR", Aliases: []string{"celular", "telefono", "teléfono"}, Required: true},
			{ID: FieldEmail, Header: "E-MAIL", Aliases: []string{"e-mail", "email", "correo"}, Required: true},
			{ID: FieldArea, Header: "AREA", Aliases: []string{"area", "área", "areas"}, Required: true},
			{ID: FieldGrade, Header: "GRADO", Aliases: []string{"grado"}, Required: true},
			{ID: FieldLevel, Header: "NIVEL", Aliases: []string{"nivel"}, Required: true},
			{ID: FieldTutorPhone, Header: "NUMERO TUTOR", Aliases: []string{"numero tutor", "número tutor"}, Required: true},
			{ID: FieldTutorName, Header: "NOMBRE TUTOR", Aliases: []string{"nombre tutor"}, Required: true},
		},
		RequiredValues: []Field{
			FieldDocument, FieldFirstName, FieldLastName, FieldGender,
			FieldDepartment, FieldSchool, FieldArea, FieldGrade, FieldLevel,
			FieldTutorPhone, FieldTutorName,
		},
		GenderValues:         []string{"F", "M"},
		AutoCreateAreas:      false,
		ScopeAreasToOlympiad: true,
		RejectKnownDocument:  true,
		MaxAreasPerRow:       3,
	}

	legacy := &Schema{
		Name: "v1",
		Fields: []FieldSpec{
			{ID: FieldRowNumber, Header: "N.", Aliases: []string{"n.", "n", "nro", "no."}},
			{ID: FieldDocument, Header: "DOC.", Aliases: []string{"doc.", "ci", "documento"}, Required: true},
			{ID: FieldFullName, Header: "NOMBRE", Aliases: []string{"nombre", "nombre completo"}, Required: true},
			{ID: FieldGender, Header: "GEN", Aliases: []string{"gen", "genero", "género"}},
			{ID: FieldDepartment, Header: "DEP.", Aliases: []string{"dep.", "departamento"}, Required: true},
			{ID: FieldSchool, Header: "COLEGIO", Aliases: []string{"colegio", "unidad educativa"}, Required: true},
			{ID: FieldPhone, Header: "CELULAR", Aliases: []string{"celular", "telefono", "teléfono"}, Required: true},
			{ID: FieldEmail, Header: "E-MAIL", Aliases: []string{"e-mail", "email", "correo"}},
			{ID: FieldArea, Header: "AREA", Aliases: []string{"area", "área", "areas"}, Required: true},
			{ID: FieldLevel, Header: "NIVEL", Aliases: []string{"nivel"}, Required: true},
			{ID: FieldGrade, Header: "GRADO", Aliases: []string{"grado"}, Required: true},
		},
		RequiredValues:       []Field{FieldDocument, FieldFullName, FieldArea, FieldLevel},
		AutoCreateAreas:      true,
		ScopeAreasToOlympiad: false,
		RejectKnownDocument:  false,
		MaxAreasPerRow:       3,
	}

	return []*Schema{strict, legacy}
}
