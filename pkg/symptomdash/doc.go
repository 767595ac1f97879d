// Package symptomdash predicts diseases from a set of selected symptoms using
// a trained classifier, and keeps an append-only log of every prediction.
//
// Quick start:
//
//	d, err := symptomdash.New(symptomdash.WithRoot("."))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	p, _ := d.Predict(ctx, "fever", "cough", "headache")
//	fmt.Println(p.Disease, p.Level)
//
// Model, feature list and label encoder are located under models/ in the
// root or working directory. The Dashboard is safe for concurrent use.
package symptomdash
