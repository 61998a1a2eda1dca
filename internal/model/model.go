// Package model содержит доменные сущности сервиса полевых продаж.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Products — фиксированный ассортимент, доступный в форме заявки.
var Products = []string{"Donut Cake", "Chocochip Muffin", "Banana Muffin", "Brownie"}

// Сигнальные значения для колонки со ссылкой на фото.
const (
	PhotoNotUploaded  = "Not Uploaded"
	PhotoNotAvailable = "Not Available"
	PhotoUploadFailed = "Upload Failed"
)

// UserRecord представляет строку таблицы пользователей.
// Уникальность логина не гарантируется: при аутентификации побеждает первая совпавшая строка.
type UserRecord struct {
	Username     string
	Password     string
	Role         Role
	EmployeeName string
	Distributors []string
}

// ProductLine описывает одну товарную позицию заявки.
type ProductLine struct {
	SKU         string `json:"sku"`
	Quantity    int    `json:"qty"`
	StockOnHand int    `json:"soh"`
}

// OrderDraft — ещё не сохранённая заявка, составленная сотрудником.
type OrderDraft struct {
	OrderDate     time.Time
	EmployeeName  string
	Distributor   string
	ShopName      string
	MarginPercent float64
	BeatArea      string
	Lines         []ProductLine
	Remarks       string
	LastVisitDate time.Time
	NumVisits     int

	Photo     []byte
	PhotoMIME string
}

// SubmissionResult содержит итог сохранения заявки.
type SubmissionResult struct {
	RowsAppended int
	PhotoLink    string
}
