/*
Package scheduler decides which pending batch to ask about next.

The scheduler runs as one task on the engine loop. Each pass it:

 1. waits while Backpressure is raised;
 2. counts solved and solvable modules, skipping ignored module names;
 3. finishes when the pool is empty and no module task is active, or starts
    draining when the pool is empty and every counted module is solved;
 4. filters batches: while modules remain unsolved, a batch is eligible only
    if at least one more module was solved since it was created;
 5. waits until at least MinEligible batches qualify while modules remain
    unsolved;
 6. removes a random eligible batch and presents a random question from it;
 7. waits for the question to be answered or revealed.

The Presenter receives every slot change and must not block.
*/
package scheduler
