// Package ai is the back-office assistant: Gemini answers questions about
// stock and sales by calling catalog and ledger tools.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/ledger"
	"go-adega-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-2.0-flash-001"
	maxToolCalls = 6
)

var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not configured")

type Assistant struct {
	apiKey  string
	model   string
	catalog *catalog.Repository
	ledger  *ledger.Repository
}

func NewAssistant(apiKey string, cat *catalog.Repository, led *ledger.Repository) *Assistant {
	return &Assistant{apiKey: apiKey, model: defaultModel, catalog: cat, ledger: led}
}

func (a *Assistant) Enabled() bool { return a.apiKey != "" }

const systemPrompt = `SYSTEM: Today is %s. You are the back-office assistant of a wine and liquor store (adega).
Amounts are in BRL.

RULES:
1. UPDATE: If a user asks to update a product by NAME, do NOT ask for the ID. Call 'check_inventory'
   with the name to find it, then call 'update_product_price' with that ID.
2. READ: For PRICE, COST, STOCK or DETAILS of a product, call 'check_inventory' and answer from it.
3. SALES: For sales, revenue or profit, use 'get_sales_report'.
4. RESTOCK: For what is running out, use 'low_stock'.

USER: %s`

var tools = []*genai.Tool{{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "Search active products. Returns ID, SKU, name, category, sale price, cost price and stock.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "Part of the name, SKU or barcode. Empty lists everything."},
				},
			},
		},
		{
			Name:        "update_product_price",
			Description: "Update the sale price of a specific product using its ID",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
					"new_price":  {Type: genai.TypeNumber, Description: "New sale price"},
				},
				Required: []string{"product_id", "new_price"},
			},
		},
		{
			Name:        "get_sales_report",
			Description: "Get sales count, revenue and profit for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "low_stock",
			Description: "List active products at or below their minimum stock.",
		},
	},
}}

// Ask runs one conversation turn, executing tool calls until the model
// answers in text.
func (a *Assistant) Ask(ctx context.Context, message string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = tools
	session := model.StartChat()

	prompt := fmt.Sprintf(systemPrompt, time.Now().Format("2006-01-02"), message)
	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	for i := 0; i < maxToolCalls; i++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return text(resp), nil
		}
		parts := make([]genai.Part, len(calls))
		for j, call := range calls {
			parts[j] = genai.FunctionResponse{Name: call.Name, Response: a.callTool(ctx, call)}
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return text(resp), nil
}

// callTool executes one function call. Failures go back to the model as
// {"error": ...} so it can explain them.
func (a *Assistant) callTool(ctx context.Context, call genai.FunctionCall) map[string]any {
	switch call.Name {
	case "check_inventory":
		query, _ := call.Args["query"].(string)
		products, err := a.catalog.Search(ctx, catalog.Filter{Query: query, Limit: 200})
		if err != nil {
			return toolError(err)
		}
		return map[string]any{"inventory": simplify(products)}

	case "update_product_price":
		id, ok1 := call.Args["product_id"].(float64)
		price, ok2 := call.Args["new_price"].(float64)
		if !ok1 || !ok2 || id <= 0 {
			return toolError(errors.New("product_id and new_price are required"))
		}
		newPrice := decimal.NewFromFloat(price)
		if err := a.catalog.UpdatePrice(ctx, uint(id), newPrice); err != nil {
			return toolError(err)
		}
		return map[string]any{"status": "Success", "product_id": uint(id), "new_price": newPrice.StringFixed(2)}

	case "get_sales_report":
		startStr, _ := call.Args["start_date"].(string)
		endStr, _ := call.Args["end_date"].(string)
		start, err1 := time.ParseInLocation("2006-01-02", startStr, time.Local)
		end, err2 := time.ParseInLocation("2006-01-02", endStr, time.Local)
		if err1 != nil || err2 != nil {
			return toolError(errors.New("dates must be in YYYY-MM-DD format"))
		}
		end = end.Add(24*time.Hour - time.Nanosecond)

		s, err := a.ledger.Summarize(ctx, start, end, 5)
		if err != nil {
			return toolError(err)
		}
		return map[string]any{
			"sales_count": s.Count,
			"revenue":     s.Revenue.StringFixed(2),
			"profit":      s.Profit.StringFixed(2),
			"discounts":   s.Discounts.StringFixed(2),
		}

	case "low_stock":
		products, err := a.catalog.LowStock(ctx)
		if err != nil {
			return toolError(err)
		}
		return map[string]any{"products": simplify(products)}
	}
	return toolError(fmt.Errorf("unknown tool %q", call.Name))
}

type simpleProduct struct {
	ID       uint   `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Cost     string `json:"cost"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"min_stock"`
}

func simplify(products []models.Product) []simpleProduct {
	out := make([]simpleProduct, 0, len(products))
	for _, p := range products {
		out = append(out, simpleProduct{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.SalePrice.StringFixed(2),
			Cost:     p.CostPrice.StringFixed(2),
			Stock:    p.StockQty,
			MinStock: p.MinStock,
		})
	}
	return out
}

func toolError(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if fc, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, fc)
			}
		}
		break
	}
	return calls
}

func text(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "I completed the action."
	}
	return b.String()
}
