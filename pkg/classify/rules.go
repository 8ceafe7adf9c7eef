package classify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// Rule maps description keywords to a classification.
type Rule struct {
	Category models.Category `yaml:"category"`
	Nature   models.Nature   `yaml:"nature"`
	Keywords []string        `yaml:"keywords"`
}

type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Rules is an offline classifier. The first rule with a keyword contained in
// the description wins; unmatched descriptions get Others/want.
type Rules struct {
	rules []Rule
}

var _ Classifier = (*Rules)(nil)

var DefaultRules = []Rule{
	{Category: models.SalaryIncome, Nature: models.Income, Keywords: []string{"salary", "payroll", "interest", "refund", "cashback"}},
	{Category: models.Investments, Nature: models.Saving, Keywords: []string{"zerodha", "groww", "sip", "mutual fund", "nps", "ppf"}},
	{Category: models.Groceries, Nature: models.Need, Keywords: []string{"blinkit", "zepto", "bigbasket", "dmart", "grofers", "instamart"}},
	{Category: models.FoodDining, Nature: models.Want, Keywords: []string{"zomato", "swiggy", "restaurant", "cafe", "starbucks"}},
	{Category: models.Transport, Nature: models.Need, Keywords: []string{"uber", "ola", "rapido", "petrol", "fuel", "irctc", "metro", "fastag"}},
	{Category: models.Utilities, Nature: models.Need, Keywords: []string{"electricity", "bescom", "airtel", "jio", "broadband", "gas bill", "recharge"}},
	{Category: models.Housing, Nature: models.Need, Keywords: []string{"rent", "maintenance", "society"}},
	{Category: models.Health, Nature: models.Need, Keywords: []string{"pharmacy", "hospital", "apollo", "clinic", "medplus"}},
	{Category: models.Entertainment, Nature: models.Want, Keywords: []string{"netflix", "spotify", "hotstar", "bookmyshow", "prime video"}},
	{Category: models.Shopping, Nature: models.Want, Keywords: []string{"amazon", "flipkart", "myntra", "ajio", "nykaa"}},
	{Category: models.DomesticHelp, Nature: models.Need, Keywords: []string{"maid", "cook", "driver salary"}},
}

func NewRules(rules []Rule) *Rules {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Rules{rules: rules}
}

// LoadRules reads a YAML rule set from path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	for i, r := range set.Rules {
		if _, err := (Result{Category: r.Category, Nature: r.Nature}).normalize(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return NewRules(set.Rules), nil
}

func (r *Rules) Classify(_ context.Context, descriptions []string) ([]Result, error) {
	out := make([]Result, len(descriptions))
	for i, d := range descriptions {
		out[i] = r.match(strings.ToLower(d))
	}
	return out, nil
}

func (r *Rules) match(desc string) Result {
	for _, rule := range r.rules {
		for _, k := range rule.Keywords {
			if strings.Contains(desc, strings.ToLower(k)) {
				return Result{Category: rule.Category, Nature: rule.Nature}
			}
		}
	}
	return Result{Category: models.Others, Nature: models.Want}
}
