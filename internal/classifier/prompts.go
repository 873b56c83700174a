package classifier

import (
	"fmt"
	"strings"

	"subsidyscout/internal/vocab"
)

const answerShape = `{
  "attestations": ["<field>"],
  "non_attestations": ["<requirement>"],
  "analysis_notes": "<short explanation>"
}`

const schemaSystem = "You analyse Dutch government subsidy schemes and classify what an applicant must provide. " +
	"Attestations may only use the field keys you are given. Answer with a single JSON object."

const genericSystem = "You analyse Dutch government subsidy schemes and classify what an applicant must provide. " +
	"Answer with a single JSON object."

// schemaPrompt is used when an attestation vocabulary is available.
func schemaPrompt(content string, v vocab.Vocabulary) string {
	var fields strings.Builder
	for _, k := range v.Keys() {
		fmt.Fprintf(&fields, "- %s: %s\n", k, v.Label(k))
	}

	return fmt.Sprintf(`Read the subsidy information below and list its requirements.

Attestations are requirements that are a single verifiable data field, usually
taken from an authoritative registry rather than written by the applicant.
Use ONLY these field keys for attestations:
%s
Non-attestations are documents, plans or procedures the applicant must produce
or follow. Describe each one with a short label.

Requirements that match no field key above are non-attestations or are left out.

Answer with JSON in exactly this shape:
%s

Subsidy information:
%s`, fields.String(), answerShape, content)
}

// genericPrompt is used without a vocabulary.
func genericPrompt(content string) string {
	return fmt.Sprintf(`Read the subsidy information below and list its requirements.

Attestations are requirements that are a single verifiable data field, usually
taken from an authoritative registry rather than written by the applicant.
Examples: KvK-nummer (Chamber of Commerce number), BSN, BTW-nummer, IBAN,
SBI-code, number of employees (FTE).

Non-attestations are documents, plans or procedures the applicant must produce
or follow. Examples: projectplan, begroting, jaarrekening, de-minimisverklaring,
samenwerkingsovereenkomst, offerte.

Answer with JSON in exactly this shape:
%s

Subsidy information:
%s`, answerShape, content)
}
