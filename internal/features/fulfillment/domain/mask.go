package domain

const maskFill = "****"

// MaskReference obscures an issuance reference for safe storage and logging.
// It keeps the first and last four characters and replaces the middle with a
// fixed mask; references of eight characters or fewer collapse entirely to
// the mask. Deterministic and non-invertible: this is masking, not encryption.
func MaskReference(ref string) string {
	if len(ref) <= 8 {
		return maskFill
	}
	return ref[:4] + maskFill + ref[len(ref)-4:]
}
