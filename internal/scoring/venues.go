package scoring

// DefaultField is the venue list used when an unknown research field is
// requested.
const DefaultField = "computer_science"

// prestigiousVenues maps a research field to its curated list of prestigious
// venue names. The table is populated once at init and never mutated;
// lookups treat it as an immutable configuration.
var prestigiousVenues = map[string][]string{
	"computer_science": {
		"ICML", "NeurIPS", "ICLR", "AAAI", "IJCAI", "CVPR", "ICCV", "ECCV",
		"SIGIR", "WWW", "SIGKDD", "SIGMOD", "VLDB", "ICDE", "OSDI", "SOSP",
		"PLDI", "POPL", "OOPSLA", "ISCA", "MICRO", "ASPLOS", "CHI", "UIST",
		"ICSE", "FSE", "ASE", "ISSTA", "CCS", "NDSS", "USENIX Security",
		"S&P", "CRYPTO", "EUROCRYPT", "ASIACRYPT", "TCC", "STOC", "FOCS",
		"SODA", "ICALP", "ESA", "SPAA", "PODC", "DISC",
	},
	"biology": {
		"Nature", "Science", "Cell", "PNAS", "Nature Biotechnology",
		"Nature Medicine", "Nature Genetics", "Nature Neuroscience",
		"Nature Immunology", "Nature Cell Biology", "Molecular Cell",
		"Developmental Cell", "Current Biology", "EMBO Journal",
		"Journal of Cell Biology", "PLoS Biology", "eLife",
	},
	"physics": {
		"Physical Review Letters", "Nature Physics", "Science",
		"Physical Review A", "Physical Review B", "Physical Review C",
		"Physical Review D", "Physical Review E", "Reviews of Modern Physics",
		"Annual Review of Nuclear and Particle Science", "Physics Reports",
	},
	"chemistry": {
		"Journal of the American Chemical Society", "Angewandte Chemie",
		"Chemical Reviews", "Nature Chemistry", "Chemical Science",
		"Accounts of Chemical Research", "Chemical Communications",
		"Organic Letters", "Inorganic Chemistry", "Analytical Chemistry",
	},
}

// VenueList returns the prestigious venue list for a research field. Unknown
// fields silently fall back to the computer_science list.
func VenueList(field string) []string {
	if venues, ok := prestigiousVenues[field]; ok {
		return venues
	}
	return prestigiousVenues[DefaultField]
}

// Fields returns the known research field names.
func Fields() []string {
	fields := make([]string, 0, len(prestigiousVenues))
	for field := range prestigiousVenues {
		fields = append(fields, field)
	}
	return fields
}
