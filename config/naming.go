package config

import "github.com/iancoleman/strcase"

// NamingConvention maps between Go struct names and database names
type NamingConvention interface {
	ToProperty(fieldName string) string
	ToColumn(propertyName string) string
	ToTable(typeName string) string
}

type defaultNaming struct {
}

func NewDefaultNaming() NamingConvention {
	return &defaultNaming{}
}

func (n *defaultNaming) ToProperty(fieldName string) string {
	if fieldName == "ID" {
		return "id"
	}
	return strcase.ToLowerCamel(fieldName)
}

func (n *defaultNaming) ToColumn(propertyName string) string {
	return strcase.ToSnake(propertyName)
}

func (n *defaultNaming) ToTable(typeName string) string {
	return strcase.ToSnake(typeName)
}
