// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/exchange_backend/main.go -o cmd/docs
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
		"/api/v1/exchange/btc-to-zmw": {
			"post": {
				"tags": [
					"exchange"
				],
				"summary": "Start a BTC to ZMW exchange",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					},
					"400": {
						"description": "Bad Request"
					},
					"409": {
						"description": "Conflict"
					},
					"502": {
						"description": "Bad Gateway"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CreateAssetToFiatRequest"
						}
					}
				]
			}
		},
		"/api/v1/exchange/zmw-to-btc": {
			"post": {
				"tags": [
					"exchange"
				],
				"summary": "Start a ZMW to BTC exchange",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					},
					"400": {
						"description": "Bad Request"
					},
					"409": {
						"description": "Conflict"
					},
					"502": {
						"description": "Bad Gateway"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CreateFiatToAssetRequest"
						}
					}
				]
			}
		},
		"/api/v1/exchange/transactions": {
			"get": {
				"tags": [
					"exchange"
				],
				"summary": "List exchange transactions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request"
					},
					"500": {
						"description": "Internal Server Error"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Page size (1-100)",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Rows to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Status filter",
						"name": "status",
						"in": "query"
					},
					{
						"type": "string",
						"description": "asset_to_fiat or fiat_to_asset",
						"name": "direction",
						"in": "query"
					}
				]
			}
		},
		"/api/v1/exchange/transactions/{id}": {
			"get": {
				"tags": [
					"exchange"
				],
				"summary": "Get an exchange transaction",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found"
					},
					"500": {
						"description": "Internal Server Error"
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Transaction ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/v1/exchange/liquidity": {
			"get": {
				"tags": [
					"exchange"
				],
				"summary": "Liquidity status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"500": {
						"description": "Internal Server Error"
					}
				}
			}
		},
		"/api/v1/exchange/calculate-fees": {
			"post": {
				"tags": [
					"exchange"
				],
				"summary": "Preview the price of an exchange",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request"
					},
					"502": {
						"description": "Bad Gateway"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CalculateFeesRequest"
						}
					}
				]
			}
		},
		"/api/v1/exchange/rate": {
			"get": {
				"tags": [
					"exchange"
				],
				"summary": "Current BTC/ZMW rate",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"502": {
						"description": "Bad Gateway"
					}
				}
			}
		},
		"/api/v1/admin/liquidity/{currency}/deposit": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Deposit liquidity",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request"
					},
					"401": {
						"description": "Unauthorized"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "BTC or ZMW",
						"name": "currency",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.DepositLiquidityRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/transactions/{id}/cancel": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Cancel a pending transaction",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"401": {
						"description": "Unauthorized"
					},
					"404": {
						"description": "Not Found"
					},
					"409": {
						"description": "Conflict"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Transaction ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CancelTransactionRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/refunds": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "List manual refunds",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"401": {
						"description": "Unauthorized"
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "open or resolved",
						"name": "status",
						"in": "query"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/refunds/{id}/resolve": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Resolve a manual refund",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"401": {
						"description": "Unauthorized"
					},
					"404": {
						"description": "Not Found"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Refund ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.ResolveRefundRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/webhooks/voltage": {
			"post": {
				"tags": [
					"webhooks"
				],
				"summary": "Lightning invoice notification",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request"
					},
					"401": {
						"description": "Unauthorized"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.VoltageWebhookRequest"
						}
					}
				]
			}
		},
		"/webhooks/lipila": {
			"post": {
				"tags": [
					"webhooks"
				],
				"summary": "Mobile-money transaction notification",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request"
					},
					"401": {
						"description": "Unauthorized"
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.LipilaWebhookRequest"
						}
					}
				]
			}
		}
	},
	"definitions": {
		"dto.PartyInfo": {
			"type": "object",
			"properties": {
				"phone": {
					"type": "string"
				},
				"lightning_address": {
					"type": "string"
				},
				"lightning_invoice": {
					"type": "string"
				}
			}
		},
		"dto.CreateAssetToFiatRequest": {
			"type": "object",
			"required": [
				"amount_zmw",
				"recipient_info"
			],
			"properties": {
				"amount_zmw": {
					"type": "number"
				},
				"recipient_info": {
					"$ref": "#/definitions/dto.PartyInfo"
				}
			}
		},
		"dto.CreateFiatToAssetRequest": {
			"type": "object",
			"required": [
				"amount_zmw",
				"sender_phone",
				"recipient_info"
			],
			"properties": {
				"amount_zmw": {
					"type": "number"
				},
				"sender_phone": {
					"type": "string"
				},
				"recipient_info": {
					"$ref": "#/definitions/dto.PartyInfo"
				}
			}
		},
		"dto.CalculateFeesRequest": {
			"type": "object",
			"properties": {
				"amount_zmw": {
					"type": "number"
				},
				"transaction_type": {
					"type": "string"
				}
			},
			"required": [
				"amount_zmw",
				"transaction_type"
			]
		},
		"dto.DepositLiquidityRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "number"
				}
			},
			"required": [
				"amount"
			]
		},
		"dto.CancelTransactionRequest": {
			"type": "object",
			"properties": {
				"reason": {
					"type": "string"
				}
			},
			"required": [
				"reason"
			]
		},
		"dto.ResolveRefundRequest": {
			"type": "object",
			"properties": {
				"note": {
					"type": "string"
				}
			},
			"required": [
				"note"
			]
		},
		"dto.VoltageWebhookRequest": {
			"type": "object",
			"properties": {
				"event": {
					"type": "string"
				},
				"invoice_id": {
					"type": "string"
				},
				"payment_hash": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				}
			},
			"required": [
				"event",
				"invoice_id"
			]
		},
		"dto.LipilaWebhookRequest": {
			"type": "object",
			"properties": {
				"event": {
					"type": "string"
				},
				"transaction_id": {
					"type": "string"
				},
				"amount": {
					"type": "number"
				},
				"status": {
					"type": "string"
				},
				"reference": {
					"type": "string"
				}
			},
			"required": [
				"event",
				"transaction_id"
			]
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "BTC Mobile Money Exchange API",
	Description:      "Exchange between Lightning BTC and ZMW mobile money.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
