package expr

import (
	"fmt"

	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/types"
)

type customerExample struct {
	types.Model
	Name string
	Age  int
}

type testResolver struct{}

func (testResolver) Table() string    { return "customer" }
func (testResolver) Alias() string    { return "t0" }
func (testResolver) IdColumn() string { return "t0.id" }

func (testResolver) Column(property string) (string, error) {
	if property == "missing" {
		return "", fmt.Errorf("unknown property %s", property)
	}
	return "t0." + property, nil
}

func (testResolver) ManyJoin(property string) (string, string, error) {
	if property != "orders" {
		return "", "", fmt.Errorf("%s is not a many property", property)
	}
	return "orders", "customer_id", nil
}

func (testResolver) ExampleValues(bean types.EntityBean) ([]types.PropertyValue, error) {
	c := bean.(*customerExample)
	var values []types.PropertyValue
	if c.Name != "" {
		values = append(values, types.PropertyValue{Name: "name", Value: c.Name})
	}
	if c.Age != 0 {
		values = append(values, types.PropertyValue{Name: "age", Value: c.Age})
	}
	return values, nil
}

func platform(name string) config.Platform {
	p, err := config.PlatformByName(name)
	if err != nil {
		panic(err)
	}
	return p
}
