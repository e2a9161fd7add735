package models

import "github.com/dmitrijs2005/dmoclinic/internal/store"

// Meal names a section of a diet.
type Meal string

const (
	Breakfast Meal = "breakfast"
	Lunch     Meal = "lunch"
	Dinner    Meal = "dinner"
	Snacks    Meal = "snacks"
)

// Meals lists the sections in display order.
var Meals = []Meal{Breakfast, Lunch, Dinner, Snacks}

func (m Meal) Valid() bool {
	for _, v := range Meals {
		if v == m {
			return true
		}
	}
	return false
}

const FieldName = "name"

// Diet is diets/{id}.
type Diet struct {
	ID    string
	Name  string
	Items map[Meal][]string
}

// ItemsFor returns the items of meal, nil when the meal has none.
func (d *Diet) ItemsFor(meal Meal) []string {
	if d.Items == nil {
		return nil
	}
	return d.Items[meal]
}

func (d *Diet) Fields() map[string]any {
	f := map[string]any{FieldName: d.Name}
	for _, m := range Meals {
		items := d.ItemsFor(m)
		if items == nil {
			items = []string{}
		}
		f[string(m)] = items
	}
	return f
}

func DietFromDocument(doc *store.Document) *Diet {
	d := &Diet{ID: doc.ID(), Name: store.String(doc.Fields, FieldName), Items: map[Meal][]string{}}
	for _, m := range Meals {
		if items := store.Strings(doc.Fields, string(m)); len(items) > 0 {
			d.Items[m] = items
		}
	}
	return d
}
