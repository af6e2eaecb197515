package export

import "github.com/eugene-nechvoloda/meetyai/insight"

// Canonical insight field names usable as field-mapping keys.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldType        = "type"
	FieldConfidence  = "confidence"
	FieldEvidence    = "evidence"
	FieldSpeaker     = "speaker"
	FieldSource      = "source"
)

// MapFields translates canonical insight fields into the destination's
// native field names. Only canonical fields present in the mapping appear
// in the payload. The source field carries the owning transcript's title.
func MapFields(ins *insight.Insight, transcriptTitle string, mapping map[string]string) map[string]any {
	payload := map[string]any{}
	set := func(canonical string, value any) {
		if dst, ok := mapping[canonical]; ok && dst != "" {
			payload[dst] = value
		}
	}

	set(FieldTitle, ins.Title)
	set(FieldDescription, ins.Description)
	set(FieldType, string(ins.Type))
	set(FieldConfidence, ins.Confidence)
	set(FieldEvidence, ins.EvidenceText)
	set(FieldSpeaker, ins.Speaker)
	set(FieldSource, transcriptTitle)

	return payload
}
