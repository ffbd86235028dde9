package source

// Role selects the schema and the shape of the loaded Table.
type Role int

const (
	RoleNativeRoll Role = iota
	RoleForeignRoll
	RoleTally
	RoleFacilityRegistry
	RoleElectorSummary
	RoleSectionReference
)

func (r Role) String() string {
	switch r {
	case RoleNativeRoll:
		return "native_roll"
	case RoleForeignRoll:
		return "foreign_roll"
	case RoleTally:
		return "tally"
	case RoleFacilityRegistry:
		return "facility_registry"
	case RoleElectorSummary:
		return "elector_summary"
	case RoleSectionReference:
		return "section_reference"
	default:
		return "unknown"
	}
}

// Logical field names. They appear in SchemaError messages.
const (
	fieldCircuit      = "circuit_code"
	fieldTable        = "table_number"
	fieldDistrict     = "district"
	fieldDistrictName = "district_name"
	fieldFacility     = "facility_name"
	fieldVoterID      = "voter_id"
	fieldElectors     = "elector_count"
	fieldForeign      = "foreign_count"
	fieldSection      = "section"
	fieldVoterKind    = "voter_kind"
	fieldParty        = "party"
	fieldOffice       = "office"
	fieldVoteKind     = "vote_kind"
	fieldVotes        = "vote_count"
	fieldMunicipality = "municipality"
)

var (
	colCircuit = column{field: fieldCircuit, required: true,
		candidates: []string{"cod circ", "codigo circuito", "cod circuito", "circuito"}, exclude: []string{"nombre"}}
	colTable = column{field: fieldTable, required: true,
		candidates: []string{"nro mesa", "numero mesa", "mesa"}, exclude: []string{"electores", "cantidad"}}
	colDistrictName = column{field: fieldDistrictName,
		candidates: []string{"nombre distrito", "municipio", "nombre municipio"}}
	colDistrict = column{field: fieldDistrict,
		candidates: []string{"distrito", "cod distrito", "codigo distrito"}, exclude: []string{"nombre"}}
	colFacility = column{field: fieldFacility, required: true,
		candidates: []string{"establecimiento", "escuela", "nombre establecimiento", "local"}, exclude: []string{"cod "}}
	colVoterID = column{field: fieldVoterID,
		candidates: []string{"id persona", "dni", "documento", "matricula"}}
	colSection = column{field: fieldSection,
		candidates: []string{"seccion", "seccion electoral"}}
)

func rollSchema() []column {
	return []column{colCircuit, colTable, colDistrictName, colDistrict, colFacility, colVoterID}
}

func registrySchema() []column {
	return []column{
		colCircuit, colTable, colDistrictName, colDistrict, colFacility,
		{field: fieldForeign, candidates: []string{"extranjeros", "cantidad extranjeros"}},
		{field: fieldElectors, required: true,
			candidates: []string{"cantidad electores", "electores"}, exclude: []string{"total", "extranjeros"}},
		colSection,
		{field: fieldVoterKind, candidates: []string{"tipo"}},
	}
}

func tallySchema() []column {
	return []column{
		{field: fieldVoteKind, required: true, candidates: []string{"tipovoto", "tipo voto", "tipo"}},
		{field: fieldVotes, required: true, candidates: []string{"votos", "cantidad votos"}},
		{field: fieldParty, required: true, candidates: []string{"agrupacion", "partido politico", "lista", "partido"}},
		{field: fieldDistrict, required: true, candidates: []string{"distrito", "municipio", "nombre distrito"}},
		colSection,
		{field: fieldFacility, candidates: []string{"establecimiento", "escuela"}},
		{field: fieldTable, candidates: []string{"mesa", "nro mesa"}},
		{field: fieldOffice, candidates: []string{"cargo"}},
	}
}

func electorSummarySchema() []column {
	return []column{
		{field: fieldElectors, required: true, candidates: []string{"electores"}},
		{field: fieldDistrict, candidates: []string{"distrito", "municipio"}},
	}
}

func referenceSchema() []column {
	return []column{
		colSection,
		{field: fieldMunicipality, required: true,
			candidates: []string{"municipio", "nombre distrito", "distrito"}, exclude: []string{"cod", "seccion"}},
	}
}

func (r Role) schema() ([]column, bool) {
	switch r {
	case RoleNativeRoll, RoleForeignRoll:
		return rollSchema(), true
	case RoleFacilityRegistry:
		return registrySchema(), true
	case RoleTally:
		return tallySchema(), true
	case RoleElectorSummary:
		return electorSummarySchema(), true
	case RoleSectionReference:
		s := referenceSchema()
		s[0].required = true
		return s, true
	}
	return nil, false
}
