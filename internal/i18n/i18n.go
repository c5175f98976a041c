// Package i18n localizes user-facing API messages. Thai is the default;
// English is served when the client prefers it.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a translatable message
type Key string

const (
	MsgUnauthorized       Key = "unauthorized"
	MsgInvalidCredentials Key = "invalid_credentials"
	MsgEmailTaken         Key = "email_taken"
	MsgProductNotFound    Key = "product_not_found"
	MsgOrderNotFound      Key = "order_not_found"
	MsgCartItemNotFound   Key = "cart_item_not_found"
	MsgCategoryNotFound   Key = "category_not_found"
	MsgEmptyCart          Key = "empty_cart"
	MsgInsufficientStock  Key = "insufficient_stock"
	MsgValidationFailed   Key = "validation_failed"
	MsgInvalidRequest     Key = "invalid_request"
	MsgRateLimited        Key = "rate_limited"
	MsgOAuthUnavailable   Key = "oauth_unavailable"
	MsgOAuthFailed        Key = "oauth_failed"
	MsgInternal           Key = "internal_error"
)

var translations = map[Key]map[language.Tag]string{
	MsgUnauthorized: {
		language.Thai:    "กรุณาเข้าสู่ระบบ",
		language.English: "Unauthorized",
	},
	MsgInvalidCredentials: {
		language.Thai:    "อีเมลหรือรหัสผ่านไม่ถูกต้อง",
		language.English: "Invalid email or password",
	},
	MsgEmailTaken: {
		language.Thai:    "อีเมลนี้ถูกใช้งานแล้ว",
		language.English: "This email is already registered",
	},
	MsgProductNotFound: {
		language.Thai:    "ไม่พบสินค้า",
		language.English: "Product not found",
	},
	MsgOrderNotFound: {
		language.Thai:    "ไม่พบคำสั่งซื้อ",
		language.English: "Order not found",
	},
	MsgCartItemNotFound: {
		language.Thai:    "ไม่พบสินค้าในตะกร้า",
		language.English: "Cart item not found",
	},
	MsgCategoryNotFound: {
		language.Thai:    "ไม่พบหมวดหมู่สินค้า",
		language.English: "Category not found",
	},
	MsgEmptyCart: {
		language.Thai:    "ตะกร้าสินค้าว่าง",
		language.English: "Your cart is empty",
	},
	MsgInsufficientStock: {
		language.Thai:    "สินค้า %s มีไม่พอ (ต้องการ %d ชิ้น เหลือ %d ชิ้น)",
		language.English: "Not enough stock for %s (requested %d, available %d)",
	},
	MsgValidationFailed: {
		language.Thai:    "ข้อมูลไม่ถูกต้อง",
		language.English: "Validation failed",
	},
	MsgInvalidRequest: {
		language.Thai:    "คำขอไม่ถูกต้อง",
		language.English: "Invalid request",
	},
	MsgRateLimited: {
		language.Thai:    "ส่งคำขอมากเกินไป กรุณาลองใหม่ภายหลัง",
		language.English: "Too many requests, please try again later",
	},
	MsgOAuthUnavailable: {
		language.Thai:    "ยังไม่ได้ตั้งค่าการเข้าสู่ระบบด้วย Google",
		language.English: "Google sign-in is not configured",
	},
	MsgOAuthFailed: {
		language.Thai:    "เข้าสู่ระบบด้วย Google ไม่สำเร็จ",
		language.English: "Google sign-in failed",
	},
	MsgInternal: {
		language.Thai:    "เกิดข้อผิดพลาด",
		language.English: "An unexpected error occurred",
	},
}

// Localizer picks a printer per request from Accept-Language
type Localizer struct {
	supported []language.Tag
	matcher   language.Matcher
	catalog   catalog.Catalog
}

// New builds a Localizer whose fallback language is defaultLang ("th" or "en").
func New(defaultLang string) *Localizer {
	fallback := language.Thai
	if tag, err := language.Parse(defaultLang); err == nil && tag == language.English {
		fallback = language.English
	}

	supported := []language.Tag{fallback}
	for _, tag := range []language.Tag{language.Thai, language.English} {
		if tag != fallback {
			supported = append(supported, tag)
		}
	}

	builder := catalog.NewBuilder(catalog.Fallback(fallback))
	for key, byLang := range translations {
		for tag, text := range byLang {
			// SetString only fails for malformed tags
			_ = builder.SetString(tag, string(key), text)
		}
	}

	return &Localizer{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		catalog:   builder,
	}
}

// Language resolves an Accept-Language header to a supported tag
func (l *Localizer) Language(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.supported[0]
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return l.supported[0]
	}
	return l.supported[index]
}

// Printer returns a message printer for the header's best match
func (l *Localizer) Printer(acceptLanguage string) *message.Printer {
	return message.NewPrinter(l.Language(acceptLanguage), message.Catalog(l.catalog))
}

// Message formats key for the header's best match
func (l *Localizer) Message(acceptLanguage string, key Key, args ...interface{}) string {
	return l.Printer(acceptLanguage).Sprintf(string(key), args...)
}
