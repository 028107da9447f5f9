package domain

import "sync"

type Client struct {
	ID      ClientID `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`

	Loyalty LoyaltyAccount `json:"-"`

	mu      sync.RWMutex
	history []*Order
}

func NewClient(id ClientID, name, email, address, phone string) *Client {
	return &Client{
		ID:      id,
		Name:    name,
		Email:   email,
		Address: address,
		Phone:   phone,
	}
}

func (c *Client) addOrderToHistory(o *Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.history {
		if existing == o {
			return
		}
	}
	c.history = append(c.history, o)
}

// OrderHistory lists paid orders, oldest first.
func (c *Client) OrderHistory() []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Order(nil), c.history...)
}
