package testutil

import (
	"gopkg.in/inf.v0"

	"github.com/datastax/ormquery/types"
)

type Customer struct {
	types.Model `orm:"table=customer"`
	ID          int64 `orm:"id"`
	Name        string
	Status      string
	Age         int
	Credit      *inf.Dec
	Doc         string
	Orders      []*Order   `orm:"many,fk=customer_id"`
	Contacts    []*Contact `orm:"many,set"`
	Selected    bool       `orm:"transient"`
}

type Order struct {
	types.Model `orm:"table=orders"`
	ID          int64
	CustomerID  int64 `orm:"column=customer_id"`
	Status      string
	Total       float64
}

type Contact struct {
	types.Model
	ID         int64
	CustomerID int64 `orm:"column=customer_id"`
	Email      string
}
