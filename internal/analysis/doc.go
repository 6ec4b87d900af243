// Package analysis encodes requests for and decodes responses from the
// text analysis services: named-entity recognition, subject-term
// classification and machine translation.
//
// Entity responses have the shape
//
//	{"results": [{"entity_group": "PER", "start": 0, "end": 4, "score": 0.99}, ...]}
//
// translation responses {"text": "..."}, and failures {"detail": ...}.
// Offsets in entity responses count code points, matching span offsets.
package analysis
