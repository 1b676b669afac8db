package deck

import (
	"fmt"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Position is one slot of a spread's fixed layout.
type Position struct {
	Name        string
	Order       int
	Description string
}

var threeCardPositions = []Position{
	{Name: "past", Order: 1, Description: "过去的影响"},
	{Name: "present", Order: 2, Description: "当前状况"},
	{Name: "future", Order: 3, Description: "未来趋势"},
}

var celticCrossPositions = []Position{
	{Name: "cover", Order: 1, Description: "覆盖Significator的牌，代表当前情况"},
	{Name: "crossing", Order: 2, Description: "横跨第一张牌的牌，代表阻碍或帮助"},
	{Name: "basis", Order: 3, Description: "位于Significator下方的牌，代表基础或根源"},
	{Name: "behind", Order: 4, Description: "代表过去的影响"},
	{Name: "crowned", Order: 5, Description: "代表可能的结果或目标"},
	{Name: "before", Order: 6, Description: "代表即将到来的未来"},
	{Name: "self", Order: 7, Description: "代表问卜者自身"},
	{Name: "environment", Order: 8, Description: "代表周围环境和他人影响"},
	{Name: "hopes_and_fears", Order: 9, Description: "代表问卜者的希望和恐惧"},
	{Name: "outcome", Order: 10, Description: "代表最终结果"},
}

// SpreadPositions returns the fixed position list for a dealable spread.
// Spread names the QuestionAnalyzer may recommend but the selector cannot
// deal (work_cycle, other) fail with ErrUnknownSpread.
func SpreadPositions(spread models.SpreadType) ([]Position, error) {
	switch spread {
	case models.SpreadThreeCard:
		return threeCardPositions, nil
	case models.SpreadCelticCross:
		return celticCrossPositions, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpread, spread)
	}
}

// UsesSignificator reports whether the spread's contract includes a
// significator card.
func UsesSignificator(spread models.SpreadType) bool {
	return spread == models.SpreadCelticCross
}
