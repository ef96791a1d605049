package figaro

// Tier is the Figaro subscription level. The API may send null, decoded as "".
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierPower Tier = "power"
)

// Summary is the denormalized payload of GET /tab/summary.
type Summary struct {
	Subscription  Subscription  `json:"subscription"`
	Lists         []ListSummary `json:"lists"`
	Reminders     []Reminder    `json:"reminders"`
	Briefing      *Briefing     `json:"briefing"`
	MemoriesCount int           `json:"memoriesCount"`
}

type Subscription struct {
	Tier      Tier    `json:"tier"`
	ExpiresAt *string `json:"expiresAt"`
}

// ListSummary carries the item count and the first few items of a list.
type ListSummary struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
	Count int      `json:"count"`
}

type Reminder struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

type Briefing struct {
	Shortcode   string `json:"shortcode"`
	GeneratedAt string `json:"generatedAt"`
}

// Goal is a numeric target with a unit, e.g. {"target": 2000, "unit": "kcal"}.
type Goal struct {
	Target float64 `json:"target"`
	Unit   string  `json:"unit"`
}

type Nutrition struct {
	Date   string          `json:"date"`
	Totals NutritionTotals `json:"totals"`
	Goals  NutritionGoals  `json:"goals"`
	Logs   []NutritionLog  `json:"logs"`
}

type NutritionTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Water    float64 `json:"water"`
	Meals    int     `json:"meals"`
}

type NutritionGoals struct {
	Calories *Goal `json:"calories,omitempty"`
	Protein  *Goal `json:"protein,omitempty"`
	Carbs    *Goal `json:"carbs,omitempty"`
	Fat      *Goal `json:"fat,omitempty"`
	Water    *Goal `json:"water,omitempty"`
}

type NutritionLog struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	MealType    string   `json:"meal_type"`
	Calories    *float64 `json:"calories,omitempty"`
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
	LoggedAt    string   `json:"logged_at"`
}

type Fitness struct {
	WeekStart string         `json:"weekStart"`
	Summary   FitnessSummary `json:"summary"`
	Goals     FitnessGoals   `json:"goals"`
	Workouts  []Workout      `json:"workouts"`
	RecentPRs []PR           `json:"recentPRs"`
}

type FitnessSummary struct {
	TotalWorkouts     int     `json:"totalWorkouts"`
	StrengthSessions  int     `json:"strengthSessions"`
	CardioSessions    int     `json:"cardioSessions"`
	TotalDurationMins float64 `json:"totalDurationMins"`
	CaloriesBurned    float64 `json:"caloriesBurned"`
	PRsHit            int     `json:"prsHit"`
}

type FitnessGoals struct {
	Workouts         *Goal `json:"workouts,omitempty"`
	CardioMins       *Goal `json:"cardio_mins,omitempty"`
	StrengthSessions *Goal `json:"strength_sessions,omitempty"`
}

type Workout struct {
	ID           string   `json:"id"`
	ExerciseName string   `json:"exercise_name"`
	ExerciseType string   `json:"exercise_type"`
	Sets         *int     `json:"sets,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	DurationMins *float64 `json:"duration_mins,omitempty"`
	IsPR         bool     `json:"is_pr"`
	LoggedAt     string   `json:"logged_at"`
}

// PR is a personal record.
type PR struct {
	ID           string   `json:"id"`
	ExerciseName string   `json:"exercise_name"`
	PRType       string   `json:"pr_type"`
	Weight       *float64 `json:"weight,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	AchievedAt   string   `json:"achieved_at"`
}

type People struct {
	TotalPeople       int                `json:"totalPeople"`
	UpcomingBirthdays []UpcomingBirthday `json:"upcomingBirthdays"`
	RecentContacts    []Person           `json:"recentContacts"`
	People            []Person           `json:"people"`
}

type Person struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Relationship string   `json:"relationship,omitempty"`
	Birthday     string   `json:"birthday,omitempty"`
	Anniversary  string   `json:"anniversary,omitempty"`
	Contact      *Contact `json:"contact,omitempty"`
	GiftIdeas    []string `json:"giftIdeas,omitempty"`
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type UpcomingBirthday struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Relationship string   `json:"relationship,omitempty"`
	Birthday     string   `json:"birthday"`
	DaysUntil    int      `json:"daysUntil"`
	GiftIdeas    []string `json:"giftIdeas,omitempty"`
}

type Money struct {
	Month          string        `json:"month"`
	Spending       Spending      `json:"spending"`
	IOUs           IOUSummary    `json:"ious"`
	Subscriptions  Subscriptions `json:"subscriptions"`
	RecentExpenses []Expense     `json:"recentExpenses"`
}

type Spending struct {
	Total             float64            `json:"total"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	TransactionCount  int                `json:"transactionCount"`
	AvgTransaction    float64            `json:"avgTransaction"`
	TopMerchant       string             `json:"topMerchant,omitempty"`
}

type IOUSummary struct {
	OwedToMe     float64 `json:"owedToMe"`
	IOwe         float64 `json:"iOwe"`
	NetBalance   float64 `json:"netBalance"`
	PendingCount int     `json:"pendingCount"`
	Pending      []IOU   `json:"pending"`
}

// IOUDirection is either "owed_to_me" or "i_owe".
type IOUDirection string

const (
	OwedToMe IOUDirection = "owed_to_me"
	IOwe     IOUDirection = "i_owe"
)

type IOU struct {
	ID         string       `json:"id"`
	PersonName string       `json:"person_name"`
	Direction  IOUDirection `json:"direction"`
	Amount     float64      `json:"amount"`
	Reason     string       `json:"reason,omitempty"`
	IsSettled  bool         `json:"is_settled"`
}

type Subscriptions struct {
	Active       []RecurringCharge `json:"active"`
	MonthlyTotal float64           `json:"monthlyTotal"`
}

// RecurringCharge is a paid subscription the user tracks in Figaro.
type RecurringCharge struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Frequency       string  `json:"frequency"`
	NextBillingDate string  `json:"next_billing_date,omitempty"`
}

type Expense struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant,omitempty"`
	LoggedAt    string  `json:"logged_at"`
}
