package constants

import (
	"strings"
)

// DocumentType is the closed set of document kinds the verifier understands.
type DocumentType string

const (
	Aadhaar         DocumentType = "aadhaar"
	BirthCert       DocumentType = "birth_cert"
	Marksheet       DocumentType = "marksheet"
	DegreeCert      DocumentType = "degree_cert"
	ProofOfClass    DocumentType = "proof_of_class"
	ProvisionalCert DocumentType = "provisional_cert"
	ExperienceCert  DocumentType = "experience_cert"
	GateScoreCard   DocumentType = "gate_score_card"
	ProofOfCategory DocumentType = "proof_of_category"
	ProofOfAddress  DocumentType = "proof_of_address"
	PhdCert         DocumentType = "phd_cert"
)

// WatermarkedType pages are de-watermarked locally instead of going straight to OCR.
const WatermarkedType = GateScoreCard

var allDocumentTypes = []DocumentType{
	Aadhaar,
	BirthCert,
	Marksheet,
	DegreeCert,
	ProofOfClass,
	ProvisionalCert,
	ExperienceCert,
	GateScoreCard,
	ProofOfCategory,
	ProofOfAddress,
	PhdCert,
}

func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

func DocumentTypesAsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalDocumentType trims and lowercases input and reports whether it names a known type.
func CanonicalDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}
	return "", false
}
