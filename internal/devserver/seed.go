package devserver

import (
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrogh/storefront/pkg/types"
)

// seed loads the cereal catalog and the default admin account.
func (s *Server) seed() error {
	s.manufacturers = map[int]types.Manufacturer{
		1: {ID: 1, Name: "Kellogg's"},
		2: {ID: 2, Name: "Quaker"},
		3: {ID: 3, Name: "General Mills"},
	}

	s.details = map[int]types.ProductDetails{
		1: {ID: 1, Weight: 1.0, Cups: 1.0, Calories: 100, Protein: 2, Fat: 0.5, Sodium: 200, Fiber: 1, Carbohydrates: 24, Sugars: 2, Potassium: 35, Vitamins: 25},
		2: {ID: 2, Weight: 1.1, Cups: 1.0, Calories: 110, Protein: 1, Fat: 1, Sodium: 150, Fiber: 1, Carbohydrates: 25, Sugars: 12, Potassium: 30, Vitamins: 25},
		3: {ID: 3, IsHot: true, Weight: 1.4, Cups: 0.5, Calories: 150, Protein: 5, Fat: 3, Sodium: 0, Fiber: 4, Carbohydrates: 27, Sugars: 1, Potassium: 150, Vitamins: 0},
		4: {ID: 4, Weight: 1.0, Cups: 0.75, Calories: 105, Protein: 3, Fat: 2, Sodium: 180, Fiber: 3, Carbohydrates: 21, Sugars: 1, Potassium: 100, Vitamins: 25},
		5: {ID: 5, Weight: 1.3, Cups: 0.75, Calories: 120, Protein: 3, Fat: 1.5, Sodium: 210, Fiber: 5, Carbohydrates: 23, Sugars: 6, Potassium: 200, Vitamins: 25},
	}

	s.products = []types.Product{
		{ID: 1, Name: "Corn Flakes", Image: "static/images/corn-flakes.jpg", Price: decimal.RequireFromString("3.50"), Stock: 40, ManufacturerID: 1, DetailsID: 1},
		{ID: 2, Name: "Froot Loops", Image: "static/images/froot-loops.jpg", Price: decimal.RequireFromString("4.25"), Stock: 25, ManufacturerID: 1, DetailsID: 2},
		{ID: 3, Name: "Old Fashioned Oats", Image: "static/images/oats.jpg", Price: decimal.RequireFromString("5.10"), Stock: 30, ManufacturerID: 2, DetailsID: 3},
		{ID: 4, Name: "Cheerios", Image: "static/images/cheerios.jpg", Price: decimal.RequireFromString("3.95"), Stock: 50, ManufacturerID: 3, DetailsID: 4},
		{ID: 5, Name: "Raisin Bran", Image: "static/images/raisin-bran.jpg", Price: decimal.RequireFromString("10.00"), Stock: 15, ManufacturerID: 1, DetailsID: 5},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &user{
		id:           s.nextUserID,
		email:        "a@a",
		name:         "Bobby",
		address:      "Abevej 123",
		passwordHash: hash,
		admin:        true,
	}
	s.nextUserID++
	s.users[admin.email] = admin
	s.usersByID[admin.id] = admin

	return nil
}
