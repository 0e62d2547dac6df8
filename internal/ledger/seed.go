package ledger

import "github.com/storystudio/ledger/internal/models"

// DefaultUsers are created on first run so someone can log in.
func DefaultUsers() []models.User {
	return []models.User{
		{ID: "super_admin_01", Name: "System Administrator", Email: "admin@story.com", Password: "546884", Role: models.SuperAdmin},
		{ID: "admin_user_01", Name: "Ahmed Alakhras", Email: "ahmed@story.com", Password: "123", Role: models.Admin},
		{ID: "viewer_user_01", Name: "Finance Viewer", Email: "viewer@story.com", Password: "123", Role: models.Viewer},
	}
}

// SampleTransactions populate an empty ledger on first run.
func SampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			ID: "t1", InvoiceNumber: "ST-20240001", Date: "2024-05-15", Type: models.Income,
			Description: "Brand identity design - Horizon", Amount: 1500, Quantity: 1, CustomerName: "Horizon Trading Co.",
		},
		{
			ID: "t2", InvoiceNumber: "ST-20240002", Date: "2024-05-18", Type: models.Expense,
			Description: "Adobe Creative Cloud subscription", Amount: 54.99, Quantity: 1, CustomerName: "Adobe Inc",
		},
		{
			ID: "t3", InvoiceNumber: "ST-20240003", Date: "2024-05-20", Type: models.Income,
			Description: "30 second promo video", Amount: 800, Quantity: 1, CustomerName: "Saraya Restaurant",
		},
		{
			ID: "t4", InvoiceNumber: "ST-20240004", Date: "2024-05-22", Type: models.Expense,
			Description: "Website hosting renewal", Amount: 120, Quantity: 1, CustomerName: "Hostinger",
		},
	}
}
