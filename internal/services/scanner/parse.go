package scanner

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bobmcallan/sift/internal/models"
)

// ParseStatus tags how an inference response was decoded.
type ParseStatus string

const (
	ParseOK       ParseStatus = "parsed"
	ParseRepaired ParseStatus = "repaired"
	ParseFailed   ParseStatus = "failed"
)

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

	objectPattern     = regexp.MustCompile(`\{[^{}]*\}`)
	tickerPattern     = regexp.MustCompile(`"ticker"\s*:\s*"([^"]+)"`)
	signalPattern     = regexp.MustCompile(`"signal"\s*:\s*"([^"]+)"`)
	confidencePattern = regexp.MustCompile(`"confidence"\s*:\s*"?([0-9.]+)"?`)
	reasonPattern     = regexp.MustCompile(`"reason"\s*:\s*"([^"]*)"`)
)

// cleanResponse strips reasoning blocks and markdown code fences.
func cleanResponse(text string) string {
	text = thinkBlockPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// firstJSONArray returns the substring from the first '[' to the last ']'.
func firstJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// firstJSONObject returns the substring from the first '{' to the last '}'.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// parseEvalArray decodes a batch screening response. Preferred shape is a
// bare JSON array of evals; some models wrap it as {"stocks": [...]}; as a
// last resort tuples are regex-extracted from broken output.
func parseEvalArray(text string) ([]models.AIEval, ParseStatus) {
	cleaned := cleanResponse(text)

	if raw := firstJSONArray(cleaned); raw != "" {
		var evals []models.AIEval
		if err := json.Unmarshal([]byte(raw), &evals); err == nil && len(evals) > 0 {
			return evals, ParseOK
		}
	}

	if raw := firstJSONObject(cleaned); raw != "" {
		var wrapped struct {
			Stocks []models.AIEval `json:"stocks"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Stocks) > 0 {
			return wrapped.Stocks, ParseOK
		}
	}

	if evals := repairEvals(cleaned); len(evals) > 0 {
		return evals, ParseRepaired
	}
	return nil, ParseFailed
}

// repairEvals pattern-extracts {ticker, signal, confidence, reason} tuples
// from structurally broken JSON.
func repairEvals(text string) []models.AIEval {
	var evals []models.AIEval
	for _, chunk := range objectPattern.FindAllString(text, -1) {
		ticker := firstGroup(tickerPattern, chunk)
		signal := firstGroup(signalPattern, chunk)
		confStr := firstGroup(confidencePattern, chunk)
		if ticker == "" || signal == "" || confStr == "" {
			continue
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}
		evals = append(evals, models.AIEval{
			Ticker:     strings.ToUpper(ticker),
			Signal:     strings.ToUpper(signal),
			Confidence: conf,
			Reason:     firstGroup(reasonPattern, chunk),
		})
	}
	return evals
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// flexNumber decodes a JSON number that models sometimes quote as a string.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// deepEval is the expected JSON shape of one deep-analysis response.
type deepEval struct {
	Signal        string        `json:"signal"`
	Confidence    flexNumber    `json:"confidence"`
	Reason        string        `json:"reason"`
	EntryPrice    flexNumber    `json:"entry"`
	StopLoss      flexNumber    `json:"stop"`
	Target        flexNumber    `json:"target"`
	Probabilities *scenarioJSON `json:"probabilities"`
}

type scenarioJSON struct {
	Bull    flexNumber `json:"bull"`
	Neutral flexNumber `json:"neutral"`
	Bear    flexNumber `json:"bear"`
}

// probs normalizes the three-way outlook so it always sums to 100, with
// the remainder folded into neutral. Nil when the model returned nothing.
func (d *deepEval) probs() *models.ScenarioProbs {
	if d.Probabilities == nil {
		return nil
	}
	bull := float64(d.Probabilities.Bull)
	bear := float64(d.Probabilities.Bear)
	sum := bull + float64(d.Probabilities.Neutral) + bear
	if sum <= 0 {
		return nil
	}
	p := &models.ScenarioProbs{
		Bull: int(math.Round(bull * 100 / sum)),
		Bear: int(math.Round(bear * 100 / sum)),
	}
	p.Neutral = 100 - p.Bull - p.Bear
	return p
}

// parseDeepResponse decodes one deep-analysis response, repairing at field
// level when the object does not decode whole.
func parseDeepResponse(text string) (*deepEval, ParseStatus) {
	cleaned := cleanResponse(text)

	if raw := firstJSONObject(cleaned); raw != "" {
		var eval deepEval
		if err := json.Unmarshal([]byte(raw), &eval); err == nil && eval.Signal != "" {
			eval.Signal = strings.ToUpper(eval.Signal)
			return &eval, ParseOK
		}
	}

	signal := firstGroup(signalPattern, cleaned)
	confStr := firstGroup(confidencePattern, cleaned)
	if signal != "" && confStr != "" {
		if conf, err := strconv.ParseFloat(confStr, 64); err == nil {
			return &deepEval{
				Signal:     strings.ToUpper(signal),
				Confidence: flexNumber(conf),
				Reason:     firstGroup(reasonPattern, cleaned),
			}, ParseRepaired
		}
	}
	return nil, ParseFailed
}
