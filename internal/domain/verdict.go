package domain

// VerdictKind tags the two shapes a review can take.
type VerdictKind int

const (
	VerdictRejected VerdictKind = iota
	VerdictApproved
)

func (k VerdictKind) String() string {
	if k == VerdictApproved {
		return "Approved"
	}
	return "Rejected"
}

// Verdict is the Review Port's structured judgment of a draft.
// Feedback and CorrectCategory are only meaningful when Kind is VerdictRejected.
type Verdict struct {
	Kind            VerdictKind
	Feedback        string
	CorrectCategory *Category
}

// Approved builds an approval verdict.
func Approved() Verdict {
	return Verdict{Kind: VerdictApproved}
}

// Rejected builds a rejection verdict. correct may be nil.
func Rejected(feedback string, correct *Category) Verdict {
	return Verdict{Kind: VerdictRejected, Feedback: feedback, CorrectCategory: correct}
}

// IsApproved reports whether the draft was approved.
func (v Verdict) IsApproved() bool {
	return v.Kind == VerdictApproved
}
