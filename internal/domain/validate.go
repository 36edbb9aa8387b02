package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var productValidator = newProductValidator()

func newProductValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).IsValid()
	})
	mustRegister(v, "realimage", func(fl validator.FieldLevel) bool {
		return !IsPlaceholderRef(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// 字段错误的输出顺序
var fieldRank = map[string]int{
	"name":           0,
	"description":    1,
	"category":       2,
	"price":          3,
	"details":        4,
	"availableSizes": 5,
	"colors":         6,
}

var colorIndexPattern = regexp.MustCompile(`^colors\[(\d+)\]`)

// ValidateProduct 校验商品输入的结构约束，返回全部字段错误（为空表示通过）。
// 调用前应先执行 Normalize。slug 唯一性由目录服务检查。
func ValidateProduct(in *ProductInput) []FieldError {
	var fields []FieldError

	if err := productValidator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []FieldError{{Field: "", Message: err.Error()}}
		}
		for _, fe := range verrs {
			path := fieldPath(fe)
			fields = append(fields, FieldError{Field: path, Message: fieldMessage(in, fe, path)})
		}
	}

	if strings.TrimSpace(in.Name) != "" && Slugify(in.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "Name must contain at least one letter or digit"})
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return rankOf(fields[i].Field) < rankOf(fields[j].Field)
	})
	return fields
}

// fieldPath 去掉命名空间中的结构体名，得到 json 字段路径
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func rankOf(path string) int {
	root := path
	if i := strings.IndexAny(root, ".["); i >= 0 {
		root = root[:i]
	}
	if r, ok := fieldRank[root]; ok {
		return r
	}
	return len(fieldRank)
}

func fieldMessage(in *ProductInput, fe validator.FieldError, path string) string {
	switch path {
	case "name":
		return "Name is required"
	case "description":
		return "Description is required"
	case "category":
		return "Category must be one of: tshirts, hoodies, pants"
	case "price":
		if fe.Tag() == "required" {
			return "Price is required"
		}
		return "Price must be greater than 0"
	case "details":
		return "Product details are required"
	case "availableSizes":
		return "At least one available size is required"
	case "colors":
		return "At least one color is required"
	}

	if m := colorIndexPattern.FindStringSubmatch(path); m != nil {
		idx, _ := strconv.Atoi(m[1])
		label := colorLabel(in, idx)
		switch {
		case strings.HasSuffix(path, ".images"):
			return fmt.Sprintf("Color %q must have an images object", label)
		case strings.TrimSpace(fmt.Sprint(fe.Value())) == "":
			return fmt.Sprintf("Color %q must have both front and back images", label)
		default:
			return fmt.Sprintf("Color %q must have actual images uploaded (not placeholders)", label)
		}
	}

	return fmt.Sprintf("%s is invalid", path)
}

func colorLabel(in *ProductInput, idx int) string {
	if idx < len(in.Colors) {
		if name := strings.TrimSpace(in.Colors[idx].Name); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Color %d", idx+1)
}
