package model

import "time"

type Promo struct {
	ID    string
	Title string
	Price int64
}

type Purchase struct {
	ID        int64
	UserID    int64
	PromoID   string
	Spent     int64
	CreatedAt time.Time
}

type PurchaseReceipt struct {
	Purchase Purchase
	Promo    Promo
	Balance  int64
}
