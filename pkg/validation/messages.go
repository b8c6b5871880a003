package validation

import "fmt"

func msgRequired(field string) string {
	return fmt.Sprintf("The %s field is required.", field)
}

func msgRequiredIf(field string, cond *Condition) string {
	return fmt.Sprintf("The %s field is required when %s is %s.", field, cond.Field, cond.Value)
}

func msgInvalidChoice(field string) string {
	return fmt.Sprintf("The selected %s is invalid.", field)
}

func msgTaken(field string) string {
	return fmt.Sprintf("The %s has already been taken.", field)
}

func msgDifferent(field, other string) string {
	return fmt.Sprintf("The %s and %s must be different.", field, other)
}

func msgType(field, typ string) string {
	switch typ {
	case TypeUUID:
		return fmt.Sprintf("The %s must be a valid UUID.", field)
	case TypeInteger:
		return fmt.Sprintf("The %s must be an integer.", field)
	case TypeNumeric:
		return fmt.Sprintf("The %s must be a number.", field)
	case TypeDate:
		return fmt.Sprintf("The %s is not a valid date.", field)
	case TypeEmail:
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case TypeBoolean:
		return fmt.Sprintf("The %s field must be true or false.", field)
	case typeArray:
		return fmt.Sprintf("The %s must be an array.", field)
	case typeObject:
		return fmt.Sprintf("The %s must be an object.", field)
	default:
		return fmt.Sprintf("The %s must be a string.", field)
	}
}

func msgConstraint(field, tag, param string, text bool) string {
	unit := ""
	if text {
		unit = " characters"
	}
	switch tag {
	case "min", "gte":
		return fmt.Sprintf("The %s must be at least %s%s.", field, param, unit)
	case "max", "lte":
		return fmt.Sprintf("The %s must not exceed %s%s.", field, param, unit)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "len":
		return fmt.Sprintf("The %s must be %s%s.", field, param, unit)
	default:
		return fmt.Sprintf("The %s format is invalid.", field)
	}
}
