// Package bakery is the demo domain served by agentdesk: a cake shop with a
// general front desk, a custom order specialist, a refund specialist and an
// administrative agent.
//
// The package provides the SQLite-backed shop data (customers, orders,
// products), the tool bodies the agents call, and the agent catalog with its
// handoff edges:
//
//	BakeryBot    -> Order Agent, Refund Agent, AdminBot
//	Order Agent  -> BakeryBot, Refund Agent, AdminBot
//	Refund Agent -> BakeryBot, AdminBot
//	AdminBot     -> BakeryBot, Order Agent, Refund Agent
//
// Business "not found" outcomes are returned as data so the model can phrase
// them for the customer.
package bakery
