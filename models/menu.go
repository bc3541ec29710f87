package models

type MenuItemOption struct {
	Type  string  `json:"type"`
	Value string  `json:"value"`
	Fee   float64 `json:"fee"`
}

type NutritionalInformations struct {
	Calories      *float64 `json:"calories,omitempty"`
	Lipids        *float64 `json:"lipids,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Zinc          *float64 `json:"zinc,omitempty"`
	Iron          *float64 `json:"iron,omitempty"`
	Calcium       *float64 `json:"calcium,omitempty"`
	Magnesium     *float64 `json:"magnesium,omitempty"`
	Potassium     *float64 `json:"potassium,omitempty"`
	VitaminA      *float64 `json:"vitamina,omitempty"`
	VitaminC      *float64 `json:"vitaminc,omitempty"`
	VitaminD      *float64 `json:"vitamind,omitempty"`
	VitaminE      *float64 `json:"vitamine,omitempty"`
	VitaminK      *float64 `json:"vitamink,omitempty"`
	VitaminB6     *float64 `json:"vitaminb6,omitempty"`
	VitaminB12    *float64 `json:"vitaminb12,omitempty"`
}

type MenuItem struct {
	ID            string                   `json:"id"`
	CafeID        string                   `json:"cafe_id"`
	CategoryIDs   []string                 `json:"category_ids"`
	Name          string                   `json:"name"`
	Description   *string                  `json:"description"`
	Tags          []string                 `json:"tags"`
	ImageURL      *string                  `json:"image_url"`
	Price         float64                  `json:"price"`
	InStock       bool                     `json:"in_stock"`
	IsHighlighted bool                     `json:"is_highlighted"`
	Likes         []string                 `json:"likes"`
	Barcode       *string                  `json:"barecode"`
	Nutrition     *NutritionalInformations `json:"nutritional_informations"`
	HealthScore   float64                  `json:"health_score"`
	Options       []MenuItemOption         `json:"options"`
}

type MenuItemInput struct {
	CategoryIDs []string         `json:"category_ids"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Price       float64          `json:"price"`
	InStock     *bool            `json:"in_stock,omitempty"`
	Options     []MenuItemOption `json:"options,omitempty"`
}

type MenuItemUpdate struct {
	CategoryIDs []string         `json:"category_ids,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Price       *float64         `json:"price,omitempty"`
	InStock     *bool            `json:"in_stock,omitempty"`
	Options     []MenuItemOption `json:"options,omitempty"`
}

type MenuCategory struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []MenuItem `json:"items,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
