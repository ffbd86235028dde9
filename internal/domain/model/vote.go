package model

import "github.com/okian/padron/internal/domain/keys"

// VoteKind classifies a tally line.
type VoteKind string

const (
	VotePositive   VoteKind = "POSITIVE"
	VoteBlank      VoteKind = "BLANK"
	VoteNull       VoteKind = "NULL"
	VoteContested  VoteKind = "CONTESTED"
	VoteCommand    VoteKind = "COMMAND"
	VoteChallenged VoteKind = "CHALLENGED"
	VoteUnknown    VoteKind = "UNKNOWN"
)

// Valid reports whether the kind counts toward valid votes (positive or blank).
func (k VoteKind) Valid() bool { return k == VotePositive || k == VoteBlank }

// NullLike reports whether the kind is one of the invalidated categories.
func (k VoteKind) NullLike() bool {
	switch k {
	case VoteNull, VoteContested, VoteCommand, VoteChallenged:
		return true
	}
	return false
}

// voteKindSynonyms maps folded spellings found in tally extracts to a kind.
var voteKindSynonyms = map[string]VoteKind{
	"positivo":   VotePositive,
	"positivos":  VotePositive,
	"valido":     VotePositive,
	"validos":    VotePositive,
	"blanco":     VoteBlank,
	"blancos":    VoteBlank,
	"en blanco":  VoteBlank,
	"nulo":       VoteNull,
	"nulos":      VoteNull,
	"recurrido":  VoteContested,
	"recurridos": VoteContested,
	"comando":    VoteCommand,
	"impugnado":  VoteChallenged,
	"impugnados": VoteChallenged,
}

// ClassifyVoteKind maps a raw vote-kind label to a VoteKind. It is the single
// classifier used by aggregation and outlier detection.
func ClassifyVoteKind(raw string) VoteKind {
	folded := keys.Normalize(keys.VoteKind, raw)
	if k, ok := voteKindSynonyms[folded]; ok {
		return k
	}
	switch VoteKind(folded) {
	case "positive":
		return VotePositive
	case "blank":
		return VoteBlank
	case "null":
		return VoteNull
	case "contested":
		return VoteContested
	case "command":
		return VoteCommand
	case "challenged":
		return VoteChallenged
	}
	return VoteUnknown
}

// VoteRecord is one tally line.
type VoteRecord struct {
	District     string   `json:"district"`
	Section      string   `json:"section"`
	FacilityName string   `json:"facility_name"`
	TableNumber  string   `json:"table_number"`
	Party        string   `json:"party"`
	Office       string   `json:"office"`
	VoteKind     VoteKind `json:"vote_kind"`
	VoteCount    int      `json:"vote_count"`
}

// PartyKey is the normalized party used for grouping.
func (r VoteRecord) PartyKey() string { return keys.Normalize(keys.Party, r.Party) }
