package sample

// municipality is one generated district. Section is empty for municipalities
// deliberately left out of the section reference.
type municipality struct {
	Code    int
	Name    string
	Section string
}

var catalogue = []municipality{
	{1, "Tigre", "Primera"},
	{2, "Pilar", "Primera"},
	{3, "San Isidro", "Primera"},
	{4, "José C. Paz", "Primera"},
	{5, "Lanús", "Tercera"},
	{6, "Quilmes", "Tercera"},
	{7, "La Matanza", "Tercera"},
	{8, "Florencio Varela", "Tercera"},
	{9, "La Plata", "Capital"},
	{10, "Villa Gesell", ""},
}

// Parties in tally order. The first one is the default outlier target.
var Parties = []string{
	"Fuerza Patria",
	"La Libertad Avanza",
	"Somos Buenos Aires",
	"Frente de Izquierda",
}

// Offices written to the tally. Only the first is counted in the manifest;
// the second exercises the office filter.
const (
	office      = "DIPUTADOS PROVINCIALES"
	otherOffice = "CONCEJALES"
)

var facilityNames = []string{
	"Escuela Primaria %d",
	"Colegio San José %d",
	"Jardín de Infantes %d",
	"Instituto Güemes %d",
}
