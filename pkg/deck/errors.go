package deck

import "errors"

var (
	// ErrCorpusIncomplete means a deck load returned a card count other
	// than 78. Fatal for the reading.
	ErrCorpusIncomplete = errors.New("deck corpus incomplete: expected exactly 78 cards")

	// ErrUnknownSpread means the spread name has no position list. The
	// QuestionAnalyzer may recommend spreads (e.g. work_cycle) that the
	// selector does not know how to deal.
	ErrUnknownSpread = errors.New("unknown spread type")

	// ErrSignificatorNotInDeck means significator removal targeted a card
	// id that is not present in the loaded deck.
	ErrSignificatorNotInDeck = errors.New("significator card not found in deck")

	// ErrDeckTooSmall means fewer cards remain than the spread has
	// positions.
	ErrDeckTooSmall = errors.New("not enough cards in deck for spread")
)
