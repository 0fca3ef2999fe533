package helpers

import "fmt"

// MaxServiceNameLength keeps "<name>-predictor-default" within a DNS label.
const MaxServiceNameLength = 45

// ComputeServiceName derives a per-run InferenceService name from a base
// name and a run id so that concurrent runs never share a name.
func ComputeServiceName(nameStr, runIdStr string) string {
	// up to 8 alphanumeric chars from the run id, lowercased
	idPart := make([]byte, 0, 8)
	for i := 0; i < len(runIdStr) && len(idPart) < 8; i++ {
		b := lower(runIdStr[i])
		if isAlnum(b) {
			idPart = append(idPart, b)
		}
	}
	for len(idPart) < 8 {
		idPart = append(idPart, '0')
	}

	out := sanitize(nameStr)
	if len(out) == 0 || !isLetter(out[0]) {
		// names must start with a letter
		out = append([]byte("isvc-"), out...)
		out = trimHyphens(out)
	}

	maxMain := MaxServiceNameLength - len(idPart) - 1
	if len(out) > maxMain {
		out = trimHyphens(out[:maxMain])
	}

	return fmt.Sprintf("%s-%s", string(out), string(idPart))
}

func sanitize(s string) []byte {
	out := make([]byte, 0, len(s))
	lastHyphen := false
	for i := 0; i < len(s); i++ {
		b := lower(s[i])
		if isAlnum(b) {
			out = append(out, b)
			lastHyphen = false
		} else if !lastHyphen && len(out) > 0 {
			out = append(out, '-')
			lastHyphen = true
		}
	}
	return trimHyphens(out)
}

func trimHyphens(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	return b
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' }

func isAlnum(b byte) bool { return isLetter(b) || (b >= '0' && b <= '9') }
