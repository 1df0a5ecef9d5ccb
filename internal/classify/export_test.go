package classify

// ClassifyLoss exposes the threshold table for boundary tests.
func (c *Classifier) ClassifyLoss(winLoss float64) Classification {
	return c.classifyLoss(winLoss)
}
