// Package docs is generated by swag from the handler annotations; regenerate
// with `swag init -g cmd/ebike-storefront/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/cart": {
            "get": {"tags": ["Cart"], "summary": "Get the session cart", "produces": ["application/json"], "responses": {"200": {"description": "Priced cart"}}},
            "delete": {"tags": ["Cart"], "summary": "Empty the cart", "produces": ["application/json"], "responses": {"200": {"description": "Empty cart"}}}
        },
        "/cart/items": {
            "post": {"tags": ["Cart"], "summary": "Add a product to the cart", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "Updated cart"}}}
        },
        "/cart/items/{productId}": {
            "patch": {"tags": ["Cart"], "summary": "Change battery or condition of a cart line", "responses": {"200": {"description": "Updated cart"}}},
            "delete": {"tags": ["Cart"], "summary": "Remove a cart line", "responses": {"200": {"description": "Updated cart"}}}
        },
        "/cart/items/{productId}/quantity": {
            "put": {"tags": ["Cart"], "summary": "Set the quantity of a cart line", "responses": {"200": {"description": "Updated cart"}}}
        },
        "/cart/coupon": {
            "post": {"tags": ["Coupons"], "summary": "Apply a coupon to the cart", "responses": {"200": {"description": "Coupon applied"}, "422": {"description": "Coupon rejected"}}},
            "delete": {"tags": ["Coupons"], "summary": "Remove the applied coupon", "responses": {"200": {"description": "Coupon removed"}}}
        },
        "/currencies": {
            "get": {"tags": ["Preferences"], "summary": "List display currencies", "responses": {"200": {"description": "Supported currencies"}}}
        },
        "/preferences": {
            "get": {"tags": ["Preferences"], "summary": "Get session preferences", "responses": {"200": {"description": "Language and currency"}}},
            "put": {"tags": ["Preferences"], "summary": "Update session preferences", "responses": {"200": {"description": "Updated preferences"}}}
        },
        "/chat": {
            "get": {"tags": ["Chat"], "summary": "Get the customer chat", "responses": {"200": {"description": "Widget state"}}},
            "post": {"tags": ["Chat"], "summary": "Start or resume the customer chat", "responses": {"200": {"description": "Widget state"}}},
            "delete": {"tags": ["Chat"], "summary": "Leave the customer chat", "responses": {"200": {"description": "Released"}}}
        },
        "/chat/messages": {
            "post": {"tags": ["Chat"], "summary": "Send a customer message", "responses": {"201": {"description": "Widget state with the confirmed message"}}}
        },
        "/chat/typing": {
            "post": {"tags": ["Chat"], "summary": "Signal that the customer is typing", "responses": {"202": {"description": "Accepted"}}}
        },
        "/admin/chats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "List chat conversations", "responses": {"200": {"description": "Conversation list"}}}
        },
        "/admin/chats/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Unread chat statistics", "responses": {"200": {"description": "Unread messages and active chats"}}}
        },
        "/admin/chats/open": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Close the open conversation view", "responses": {"200": {"description": "Console without an open conversation"}}}
        },
        "/admin/chats/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Open a conversation", "responses": {"200": {"description": "Console with the open conversation"}}}
        },
        "/admin/chats/{id}/messages": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Reply to a conversation", "responses": {"201": {"description": "Console with the reply"}}}
        },
        "/admin/chats/{id}/typing": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Signal that the admin is typing", "responses": {"202": {"description": "Accepted"}}}
        },
        "/admin/chats/{id}/close": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin Chat"], "summary": "Close a conversation", "responses": {"200": {"description": "Console after closing"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the admin JWT.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "E-bike Storefront API",
	Description:      "Edge service for the e-bike storefront: cart pricing, coupons, currency preferences and live chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
