package domain

import "github.com/shopspring/decimal"

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ProductCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"categoryName"`
}

type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ImageURL     string          `json:"imageUrl"`
	Active       bool            `json:"active"`
	UnitsInStock int             `json:"unitsInStock"`
}

// Page mirrors the backend's pagination envelope.
type Page struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	Page     Page      `json:"page"`
}
