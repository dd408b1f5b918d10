package advisor

import (
	"strings"

	"github.com/querylens/querylens-engine/pkg/extract"
)

// ProposeMethodName rebuilds a derived method's name with its By/And
// fragments in recommended column order. For "findByStatusAndEmail" with
// a recommendation of email before status it returns
// "findByEmailAndStatus". Returns false when the name does not follow
// the By/And convention, when the fragments do not correspond
// one-to-one with the current column order, or when the recomputed name
// equals the original (no rename to propose).
func ProposeMethodName(name string, current, recommended []string) (string, bool) {
	byIdx := strings.Index(name, "By")
	if byIdx < 0 || byIdx+2 >= len(name) {
		return "", false
	}

	prefix := name[:byIdx+2]
	fragments := strings.Split(name[byIdx+2:], "And")
	if len(fragments) != len(current) || len(current) != len(recommended) {
		return "", false
	}

	// Associate each fragment with the column it encodes, matching the
	// current order positionally and verifying by snake-cased name.
	fragmentByColumn := make(map[string]string, len(fragments))
	for i, frag := range fragments {
		if extract.CamelToSnake(frag) != strings.ToLower(current[i]) {
			return "", false
		}
		fragmentByColumn[strings.ToLower(current[i])] = frag
	}

	reordered := make([]string, 0, len(recommended))
	for _, column := range recommended {
		frag, ok := fragmentByColumn[strings.ToLower(column)]
		if !ok {
			return "", false
		}
		reordered = append(reordered, frag)
	}

	proposed := prefix + strings.Join(reordered, "And")
	if proposed == name {
		return "", false
	}
	return proposed, true
}
